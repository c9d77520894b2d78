// cmd/gentoken/main.go: mints a development JWT signed with JWT_SECRET.
// Production tokens come from the identity service.
// Uso: go run ./cmd/gentoken -user 1 -rol administrador
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tiendapos/internal/config"
	"tiendapos/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	user := flag.Uint("user", 1, "usuario_id")
	rol := flag.String("rol", middleware.RolAdministrador, "vendedor | encargado | administrador")
	local := flag.Uint("local", 0, "local_id (0 = sin local)")
	ttl := flag.Duration("ttl", 12*time.Hour, "validez del token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil || cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no configurado")
		os.Exit(1)
	}

	claims := middleware.JWTClaims{
		UserID: *user,
		Rol:    *rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
		},
	}
	if *local != 0 {
		id := *local
		claims.LocalID = &id
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

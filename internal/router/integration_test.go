//go:build integration

package router

// End-to-end flow against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tiendapos/internal/config"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/middleware"
	"tiendapos/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const testSecret = "test-secret-key"

type testEnv struct {
	server *httptest.Server
	token  string

	producto model.Producto
	talle    model.Talle
	local    model.Local
	lugar    model.Lugar
	estado   model.Estado
	medio    model.MedioPago
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("tienda_test"),
		tcPostgres.WithUsername("tienda"),
		tcPostgres.WithPassword("tienda"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:            "test",
		DatabaseURL:    pgURL,
		DBMaxOpenConns: 10,
		DBMaxIdleConns: 2,
		DBAutoMigrate:  true,
		RedisURL:       rdURL,
		JWTSecret:      testSecret,
		CajaLockTTL:    5 * time.Second,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}

	db, err := infra.NewDatabase(cfg)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	env := &testEnv{
		producto: model.Producto{Nombre: "Buzo Canguro", Estado: "activo"},
		talle:    model.Talle{Nombre: "M"},
		local:    model.Local{Nombre: "Centro"},
		lugar:    model.Lugar{Nombre: "Salon"},
		estado:   model.Estado{Nombre: "Nuevo"},
		medio:    model.MedioPago{Nombre: "Debito", Activo: true},
	}
	for _, row := range []any{&env.producto, &env.talle, &env.local, &env.lugar, &env.estado, &env.medio} {
		require.NoError(t, db.Create(row).Error)
	}

	env.server = httptest.NewServer(New(cfg, db, rdb, nil))
	t.Cleanup(env.server.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JWTClaims{
		UserID: 1,
		Rol:    middleware.RolAdministrador,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	env.token = token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestIntegration_CicloCompleto(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Distribute 5 units.
	resp := env.do(t, http.MethodPost, "/v1/stock/distribuir", map[string]any{
		"producto_id": env.producto.ID,
		"local_id":    env.local.ID,
		"lugar_id":    env.lugar.ID,
		"estado_id":   env.estado.ID,
		"talles":      []map[string]any{{"talle_id": env.talle.ID, "cantidad": 5}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dist dto.DistribuirResponse
	decodeJSON(t, resp, &dist)
	require.Len(t, dist.Stock, 1)
	stockID := dist.Stock[0].ID
	require.NotNil(t, dist.Stock[0].CodigoSKU)
	assert.Equal(t, "buzo-canguro-M-centro-salon", *dist.Stock[0].CodigoSKU)

	// 2. Open the caja; a second one for the same local is rejected.
	resp = env.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"local_id": env.local.ID, "saldo_inicial": "100"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var abierta dto.AbrirCajaResponse
	decodeJSON(t, resp, &abierta)
	cajaID := abierta.Caja.ID

	resp = env.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"local_id": env.local.ID, "saldo_inicial": "0"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 3. Sell 2 units at 1000.
	resp = env.do(t, http.MethodPost, "/v1/ventas/pos", map[string]any{
		"productos":     []map[string]any{{"stock_id": stockID, "cantidad": 2, "precio_unitario": "1000"}},
		"total":         "2000",
		"medio_pago_id": env.medio.ID,
		"usuario_id":    1,
		"local_id":      env.local.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var venta dto.RegistrarVentaResponse
	decodeJSON(t, resp, &venta)
	assert.Equal(t, cajaID, venta.Venta.CajaID)
	assertDec(t, "2000", venta.Venta.Total)

	// Overselling is a conflict and leaves the row untouched.
	resp = env.do(t, http.MethodPost, "/v1/ventas/pos", map[string]any{
		"productos":     []map[string]any{{"stock_id": stockID, "cantidad": 4, "precio_unitario": "1000"}},
		"total":         "4000",
		"medio_pago_id": env.medio.ID,
		"usuario_id":    1,
		"local_id":      env.local.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 4. Return one unit.
	resp = env.do(t, http.MethodPost, "/v1/devoluciones", map[string]any{
		"venta_id":   venta.Venta.ID,
		"usuario_id": 1,
		"local_id":   env.local.ID,
		"detalles": []map[string]any{{
			"detalle_venta_id": venta.Venta.Detalles[0].ID,
			"cantidad":         1,
			"monto":            "1000",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/v1/stock?producto_id=%d", env.producto.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page dto.Paginado[dto.StockResponse]
	decodeJSON(t, resp, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 4, page.Data[0].Cantidad)

	// 5. Ledger balance: +2000 -1000.
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/v1/caja/%d/saldo", cajaID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saldo dto.SaldoResponse
	decodeJSON(t, resp, &saldo)
	assertDec(t, "1000", saldo.Saldo)

	// 6. Withdraw part of it; more than the balance is refused.
	resp = env.do(t, http.MethodPost, "/v1/caja/recaudaciones", map[string]any{
		"local_id": env.local.ID, "usuario_id": 1, "monto": "1500",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/v1/caja/recaudaciones", map[string]any{
		"local_id": env.local.ID, "usuario_id": 1, "monto": "400",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec dto.RegistrarRecaudacionResponse
	decodeJSON(t, resp, &rec)
	assertDec(t, "1000", rec.SaldoAntes)
	assertDec(t, "600", rec.SaldoDespues)

	// 7. Close: saldo_final = 100 + 600.
	resp = env.do(t, http.MethodPost, fmt.Sprintf("/v1/caja/%d/cerrar", cajaID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cerrada dto.CajaResponse
	decodeJSON(t, resp, &cerrada)
	require.NotNil(t, cerrada.SaldoFinal)
	assertDec(t, "700", *cerrada.SaldoFinal)
}

func TestIntegration_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])

	resp = env.do(t, http.MethodGet, "/metrics", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_SinToken(t *testing.T) {
	env := setupTestEnv(t)
	env.token = ""

	resp := env.do(t, http.MethodGet, "/v1/stock", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

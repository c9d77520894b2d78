// cmd/seed/main.go: loads the demo catalog (talles, locales, lugares, estados
// and medios de pago). Safe to re-run; existing ids are left untouched.
// Uso: go run ./cmd/seed
package main

import (
	"os"
	"time"

	"tiendapos/internal/config"
	"tiendapos/internal/infra"
	"tiendapos/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.DBAutoMigrate = true

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := db.Transaction(seed); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("catalogo de demo cargado")
}

func seed(tx *gorm.DB) error {
	talles := []model.Talle{{ID: 1, Nombre: "S"}, {ID: 2, Nombre: "M"}, {ID: 3, Nombre: "L"}, {ID: 4, Nombre: "XL"}}
	locales := []model.Local{{ID: 1, Nombre: "Centro"}, {ID: 2, Nombre: "Shopping Norte"}}
	lugares := []model.Lugar{{ID: 1, Nombre: "Salon"}, {ID: 2, Nombre: "Deposito"}}
	estados := []model.Estado{{ID: 1, Nombre: "Nuevo"}, {ID: 2, Nombre: "Fallado"}}
	medios := []model.MedioPago{
		{ID: 1, Nombre: "Efectivo", AjustePorcentual: decimal.NewFromInt(-10), Activo: true},
		{ID: 2, Nombre: "Debito", AjustePorcentual: decimal.Zero, Activo: true},
		{ID: 3, Nombre: "Credito", AjustePorcentual: decimal.Zero, Activo: true},
	}
	cuotas := []model.MedioPagoCuota{
		{MedioPagoID: 3, Cuotas: 3, PorcentajeRecargo: decimal.NewFromInt(10)},
		{MedioPagoID: 3, Cuotas: 6, PorcentajeRecargo: decimal.NewFromInt(20)},
	}

	for _, rows := range []any{&talles, &locales, &lugares, &estados, &medios, &cuotas} {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
			return err
		}
	}

	// Explicit ids leave the Postgres sequences behind.
	if tx.Dialector.Name() == "postgres" {
		for _, table := range []string{"talles", "locales", "lugares", "estados", "medios_pago"} {
			if err := tx.Exec(`SELECT setval(pg_get_serial_sequence(?, 'id'), (SELECT MAX(id) FROM ` + table + `))`, table).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

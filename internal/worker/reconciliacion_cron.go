package worker

// reconciliacion_cron.go
// Periodically moves pending cash movements into the open caja of their
// local. A Redis lock keeps a single instance sweeping at a time.

import (
	"context"
	"errors"
	"time"

	"tiendapos/internal/infra"

	"github.com/rs/zerolog/log"
)

const lockKeyReconciliacion = "lock:reconciliacion"

// Conciliador is implemented by service.CajaService.
type Conciliador interface {
	ConciliarTodos(ctx context.Context) (int, error)
}

// Locker is implemented by infra.RedisLocker.
type Locker interface {
	Obtain(ctx context.Context, key string) (func(), error)
}

// ReconciliacionCronConfig holds the dependencies of the sweep goroutine.
type ReconciliacionCronConfig struct {
	Conciliador Conciliador
	Locker      Locker // nil runs without coordination
	Interval    time.Duration
}

// StartReconciliacionCron ticks every Interval until ctx is cancelled.
func StartReconciliacionCron(ctx context.Context, cfg ReconciliacionCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconciliacion_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconciliacion_cron: shutting down")
				return
			case <-ticker.C:
				barrerPendientes(ctx, cfg)
			}
		}
	}()
}

func barrerPendientes(ctx context.Context, cfg ReconciliacionCronConfig) {
	if cfg.Locker != nil {
		release, err := cfg.Locker.Obtain(ctx, lockKeyReconciliacion)
		if errors.Is(err, infra.ErrLockOcupado) {
			log.Debug().Msg("reconciliacion_cron: another instance is sweeping, skipping tick")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("reconciliacion_cron: lock failed")
			return
		}
		defer release()
	}

	n, err := cfg.Conciliador.ConciliarTodos(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciliacion_cron: sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int("conciliados", n).Msg("reconciliacion_cron: pendientes conciliados")
	}
}

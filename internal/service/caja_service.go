package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/infra"
	"tiendapos/internal/metrics"
	"tiendapos/internal/model"
	"tiendapos/internal/report"
	"tiendapos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Locker serializes caja openings across instances. infra.RedisLocker
// satisfies it.
type Locker interface {
	Obtain(ctx context.Context, key string) (func(), error)
}

// RecaudacionNotifier is told about every committed cash pickup.
type RecaudacionNotifier interface {
	NotificarRecaudacion(rec dto.RecaudacionResponse)
}

type CajaService interface {
	Abrir(ctx context.Context, req dto.AbrirCajaRequest) (*dto.AbrirCajaResponse, error)
	Cerrar(ctx context.Context, cajaID uint) (*dto.CajaResponse, error)
	ObtenerCaja(ctx context.Context, cajaID uint) (*dto.CajaResponse, error)
	ObtenerAbierta(ctx context.Context, localID uint) (*dto.CajaResponse, error)
	Saldo(ctx context.Context, cajaID uint) (*dto.SaldoResponse, error)

	RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) (*dto.MovimientoCajaResponse, error)
	ListarMovimientos(ctx context.Context, cajaID uint) ([]dto.MovimientoCajaResponse, error)
	ExportarMovimientos(ctx context.Context, cajaID uint, w io.Writer) error

	ListarPendientes(ctx context.Context, localID uint) ([]dto.PendienteResponse, error)
	ConciliarPendientes(ctx context.Context, localID uint) (int, error)
	// ConciliarTodos is run by the reconciliation cron.
	ConciliarTodos(ctx context.Context) (int, error)

	Recaudar(ctx context.Context, req dto.RecaudacionRequest) (*dto.RegistrarRecaudacionResponse, error)
	ListarRecaudaciones(ctx context.Context, filter dto.RecaudacionFilter) (*dto.Paginado[dto.RecaudacionResponse], error)
	ObtenerRecaudacion(ctx context.Context, id uint) (*dto.RecaudacionResponse, error)
}

type cajaService struct {
	tx       *repository.TxRunner
	repo     repository.CajaRepository
	locker   Locker
	notifier RecaudacionNotifier
}

// NewCajaService accepts a nil locker (single instance) and a nil notifier.
func NewCajaService(tx *repository.TxRunner, repo repository.CajaRepository, locker Locker, notifier RecaudacionNotifier) CajaService {
	return &cajaService{tx: tx, repo: repo, locker: locker, notifier: notifier}
}

func lockKeyCaja(localID uint) string { return fmt.Sprintf("lock:caja:local:%d", localID) }

// ── Abrir ─────────────────────────────────────────────────────────────────────
// At most one open caja per local. The query guard runs under a Redis lock
// because there is no constraint backing it. Pending movements of the local
// are reconciled into the new caja in the same transaction.

func (s *cajaService) Abrir(ctx context.Context, req dto.AbrirCajaRequest) (*dto.AbrirCajaResponse, error) {
	if req.LocalID == 0 || req.UsuarioID == 0 {
		return nil, apierror.NewValidationf("local_id y usuario_id son obligatorios")
	}
	if req.SaldoInicial.IsNegative() {
		return nil, apierror.NewValidationf("El saldo inicial no puede ser negativo")
	}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, lockKeyCaja(req.LocalID))
		if errors.Is(err, infra.ErrLockOcupado) {
			return nil, apierror.NewConflict("Otra apertura de caja esta en curso para el local %d", req.LocalID)
		}
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var (
		caja        *model.Caja
		conciliados int
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		existente, err := s.repo.FindAbiertaPorLocal(ctx, tx, req.LocalID, true)
		if err == nil {
			return apierror.NewConflict("Ya existe una caja abierta (#%d) en el local %d", existente.ID, req.LocalID)
		}
		if !repository.IsNotFound(err) {
			return err
		}

		caja = &model.Caja{
			LocalID:       req.LocalID,
			UsuarioID:     req.UsuarioID,
			SaldoInicial:  req.SaldoInicial,
			FechaApertura: time.Now(),
		}
		if err := s.repo.Create(ctx, tx, caja); err != nil {
			return err
		}

		conciliados, err = s.conciliar(ctx, tx, caja)
		return err
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al abrir la caja", err)
	}

	if conciliados > 0 {
		metrics.PendientesConciliados.Add(float64(conciliados))
	}
	log.Info().Uint("caja_id", caja.ID).Uint("local_id", caja.LocalID).Int("conciliados", conciliados).Msg("caja abierta")

	saldo, err := s.saldo(ctx, nil, caja.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AbrirCajaResponse{
		Message:     "Caja abierta correctamente",
		Caja:        cajaToResponse(caja, saldo),
		Conciliados: conciliados,
	}, nil
}

// conciliar moves the local's pending movements into caja, oldest first.
func (s *cajaService) conciliar(ctx context.Context, tx *gorm.DB, caja *model.Caja) (int, error) {
	pendientes, err := s.repo.ListPendientes(ctx, tx, caja.LocalID, true)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	for i := range pendientes {
		p := &pendientes[i]
		mov := &model.MovimientoCaja{
			CajaID:      caja.ID,
			Tipo:        p.Tipo,
			Origen:      p.Origen,
			Descripcion: p.Descripcion,
			Monto:       p.Monto,
			Fecha:       now,
			Referencia:  p.Referencia,
		}
		if err := s.repo.CreateMovimiento(ctx, tx, mov); err != nil {
			return 0, err
		}
		p.CajaID = &caja.ID
		p.MovimientoCajaID = &mov.ID
		p.ConciliadoAt = &now
		if err := s.repo.MarcarConciliado(ctx, tx, p); err != nil {
			return 0, err
		}
	}
	return len(pendientes), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

func (s *cajaService) Cerrar(ctx context.Context, cajaID uint) (*dto.CajaResponse, error) {
	var (
		caja  *model.Caja
		saldo Saldo
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		var err error
		caja, err = s.abiertaPorID(ctx, tx, cajaID)
		if err != nil {
			return err
		}
		saldo, err = s.saldo(ctx, tx, caja.ID)
		if err != nil {
			return err
		}
		now := time.Now()
		final := caja.SaldoInicial.Add(saldo.Total)
		caja.FechaCierre = &now
		caja.SaldoFinal = &final
		return s.repo.Cerrar(ctx, tx, caja)
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al cerrar la caja", err)
	}

	log.Info().Uint("caja_id", caja.ID).Str("saldo_final", caja.SaldoFinal.String()).Msg("caja cerrada")
	resp := cajaToResponse(caja, saldo)
	return &resp, nil
}

// abiertaPorID locks the caja row and rejects closed registers.
func (s *cajaService) abiertaPorID(ctx context.Context, tx *gorm.DB, cajaID uint) (*model.Caja, error) {
	caja, err := s.repo.FindByID(ctx, tx, cajaID, true)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Caja %d no encontrada", cajaID)
	}
	if err != nil {
		return nil, err
	}
	if !caja.Abierta() {
		return nil, apierror.NewConflict("La caja %d ya esta cerrada", cajaID)
	}
	return caja, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) saldo(ctx context.Context, tx *gorm.DB, cajaID uint) (Saldo, error) {
	movs, err := s.repo.ListMovimientos(ctx, tx, cajaID)
	if err != nil {
		return Saldo{}, err
	}
	return CalcularSaldo(movs), nil
}

func (s *cajaService) ObtenerCaja(ctx context.Context, cajaID uint) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindByID(ctx, nil, cajaID, false)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Caja %d no encontrada", cajaID)
	}
	if err != nil {
		return nil, err
	}
	saldo, err := s.saldo(ctx, nil, caja.ID)
	if err != nil {
		return nil, err
	}
	resp := cajaToResponse(caja, saldo)
	return &resp, nil
}

func (s *cajaService) ObtenerAbierta(ctx context.Context, localID uint) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindAbiertaPorLocal(ctx, nil, localID, false)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("No hay una caja abierta en el local %d", localID)
	}
	if err != nil {
		return nil, err
	}
	saldo, err := s.saldo(ctx, nil, caja.ID)
	if err != nil {
		return nil, err
	}
	resp := cajaToResponse(caja, saldo)
	return &resp, nil
}

func (s *cajaService) Saldo(ctx context.Context, cajaID uint) (*dto.SaldoResponse, error) {
	if _, err := s.repo.FindByID(ctx, nil, cajaID, false); repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Caja %d no encontrada", cajaID)
	} else if err != nil {
		return nil, err
	}
	saldo, err := s.saldo(ctx, nil, cajaID)
	if err != nil {
		return nil, err
	}
	return &dto.SaldoResponse{CajaID: cajaID, Ingresos: saldo.Ingresos, Egresos: saldo.Egresos, Saldo: saldo.Total}, nil
}

// ── Movimientos manuales ──────────────────────────────────────────────────────
// Entries are immutable; a mistake is corrected with an opposite entry.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) (*dto.MovimientoCajaResponse, error) {
	if req.Tipo != model.MovIngreso && req.Tipo != model.MovEgreso {
		return nil, apierror.NewValidationf("tipo debe ser ingreso o egreso")
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.NewValidationf("El monto debe ser mayor a cero")
	}
	origen := req.Origen
	switch origen {
	case "":
		origen = model.OrigenOtro
	case model.OrigenGasto, model.OrigenAjuste, model.OrigenOtro:
	default:
		return nil, apierror.NewValidationf("origen %q no admitido en un movimiento manual", origen)
	}

	var mov *model.MovimientoCaja
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		caja, err := s.abiertaPorID(ctx, tx, req.CajaID)
		if err != nil {
			return err
		}
		mov = &model.MovimientoCaja{
			CajaID:      caja.ID,
			Tipo:        req.Tipo,
			Origen:      origen,
			Descripcion: req.Descripcion,
			Monto:       req.Monto,
			Fecha:       time.Now(),
			Referencia:  req.Referencia,
		}
		return s.repo.CreateMovimiento(ctx, tx, mov)
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al registrar el movimiento", err)
	}
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *cajaService) ListarMovimientos(ctx context.Context, cajaID uint) ([]dto.MovimientoCajaResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, nil, cajaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoCajaResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movimientoToResponse(&movs[i]))
	}
	return out, nil
}

func (s *cajaService) ExportarMovimientos(ctx context.Context, cajaID uint, w io.Writer) error {
	caja, err := s.repo.FindByID(ctx, nil, cajaID, false)
	if repository.IsNotFound(err) {
		return apierror.NewNotFound("Caja %d no encontrada", cajaID)
	}
	if err != nil {
		return err
	}
	movs, err := s.repo.ListMovimientos(ctx, nil, cajaID)
	if err != nil {
		return err
	}
	return report.MovimientosCaja(w, caja, movs)
}

// ── Pendientes ────────────────────────────────────────────────────────────────

func (s *cajaService) ListarPendientes(ctx context.Context, localID uint) ([]dto.PendienteResponse, error) {
	ps, err := s.repo.ListPendientes(ctx, nil, localID, false)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PendienteResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, dto.PendienteResponse{
			ID:          p.ID,
			LocalID:     p.LocalID,
			Tipo:        p.Tipo,
			Origen:      p.Origen,
			Descripcion: p.Descripcion,
			Monto:       p.Monto,
			Fecha:       p.Fecha,
			Referencia:  p.Referencia,
		})
	}
	return out, nil
}

// ConciliarPendientes drains the local's pending movements into its open caja.
func (s *cajaService) ConciliarPendientes(ctx context.Context, localID uint) (int, error) {
	n, err := s.conciliarLocal(ctx, localID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.PendientesConciliados.Add(float64(n))
		log.Info().Uint("local_id", localID).Int("conciliados", n).Msg("pendientes conciliados")
	}
	return n, nil
}

func (s *cajaService) conciliarLocal(ctx context.Context, localID uint) (int, error) {
	var n int
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		caja, err := s.repo.FindAbiertaPorLocal(ctx, tx, localID, true)
		if repository.IsNotFound(err) {
			return apierror.NewNotFound("No hay una caja abierta en el local %d", localID)
		}
		if err != nil {
			return err
		}
		n, err = s.conciliar(ctx, tx, caja)
		return err
	})
	if err != nil {
		return 0, apierror.NewTxFailure("Error al conciliar pendientes", err)
	}
	return n, nil
}

// ConciliarTodos sweeps every local that has pending movements and an open
// caja. Locales without an open caja are skipped until one is opened.
func (s *cajaService) ConciliarTodos(ctx context.Context) (int, error) {
	conPendientes, err := s.repo.LocalesConPendientes(ctx)
	if err != nil {
		return 0, err
	}
	if len(conPendientes) == 0 {
		return 0, nil
	}
	abiertas, err := s.repo.LocalesConCajaAbierta(ctx)
	if err != nil {
		return 0, err
	}
	conCaja := make(map[uint]bool, len(abiertas))
	for _, id := range abiertas {
		conCaja[id] = true
	}

	total := 0
	for _, localID := range conPendientes {
		if !conCaja[localID] {
			continue
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := s.conciliarLocal(ctx, localID)
		if apierror.Is(err, apierror.KindNotFound) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Uint("local_id", localID).Msg("conciliacion: local fallido")
			continue
		}
		total += n
	}
	if total > 0 {
		metrics.PendientesConciliados.Add(float64(total))
	}
	return total, nil
}

// ── Recaudacion ───────────────────────────────────────────────────────────────
//   1. Lock the local's open caja
//   2. Project the balance; the pickup may not exceed it
//   3. Egress entry + audit row in the same transaction
//   4. After commit: metrics and the notification email

func (s *cajaService) Recaudar(ctx context.Context, req dto.RecaudacionRequest) (*dto.RegistrarRecaudacionResponse, error) {
	if req.LocalID == 0 || req.UsuarioID == 0 {
		return nil, apierror.NewValidationf("local_id y usuario_id son obligatorios")
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.NewValidationf("El monto debe ser mayor a cero")
	}

	var (
		rec   *model.CajaRecaudacion
		antes Saldo
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		caja, err := s.repo.FindAbiertaPorLocal(ctx, tx, req.LocalID, true)
		if repository.IsNotFound(err) {
			return apierror.NewNotFound("No hay una caja abierta en el local %d", req.LocalID)
		}
		if err != nil {
			return err
		}

		antes, err = s.saldo(ctx, tx, caja.ID)
		if err != nil {
			return err
		}
		if req.Monto.GreaterThan(antes.Total) {
			return apierror.NewConflict("El monto a recaudar (%s) supera el saldo disponible (%s)",
				req.Monto.StringFixed(2), antes.Total.StringFixed(2))
		}

		now := time.Now()
		referencia := "RECAUDACION"
		descripcion := "Retiro por recaudación"
		if req.Observaciones != nil && *req.Observaciones != "" {
			descripcion = descripcion + ": " + *req.Observaciones
		}
		mov := &model.MovimientoCaja{
			CajaID:      caja.ID,
			Tipo:        model.MovEgreso,
			Origen:      model.OrigenRetiroRecaudacion,
			Descripcion: descripcion,
			Monto:       req.Monto,
			Fecha:       now,
			Referencia:  &referencia,
		}
		if err := s.repo.CreateMovimiento(ctx, tx, mov); err != nil {
			return err
		}

		rec = &model.CajaRecaudacion{
			CajaID:           caja.ID,
			LocalID:          req.LocalID,
			UsuarioID:        req.UsuarioID,
			MovimientoCajaID: mov.ID,
			Monto:            req.Monto,
			FechaRecaudacion: now,
			Observaciones:    req.Observaciones,
		}
		return s.repo.CreateRecaudacion(ctx, tx, rec)
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al registrar la recaudacion", err)
	}

	resp := recaudacionToResponse(rec)
	metrics.Recaudaciones.Inc()
	log.Info().
		Uint("recaudacion_id", rec.ID).
		Uint("caja_id", rec.CajaID).
		Str("monto", rec.Monto.String()).
		Msg("recaudacion registrada")
	if s.notifier != nil {
		s.notifier.NotificarRecaudacion(resp)
	}

	return &dto.RegistrarRecaudacionResponse{
		Message:      "Recaudación registrada correctamente",
		Recaudacion:  resp,
		SaldoAntes:   antes.Total,
		SaldoDespues: antes.Total.Sub(req.Monto),
	}, nil
}

func (s *cajaService) ListarRecaudaciones(ctx context.Context, f dto.RecaudacionFilter) (*dto.Paginado[dto.RecaudacionResponse], error) {
	filter := repository.RecaudacionFilter{
		LocalID:   f.LocalID,
		UsuarioID: f.UsuarioID,
		CajaID:    f.CajaID,
		Page:      f.Page,
		Limit:     f.Limit,
	}
	if f.Desde != "" {
		t, err := parseFecha(f.Desde, false)
		if err != nil {
			return nil, apierror.NewValidationf("desde invalido: %s", f.Desde)
		}
		filter.Desde = &t
	}
	if f.Hasta != "" {
		t, err := parseFecha(f.Hasta, true)
		if err != nil {
			return nil, apierror.NewValidationf("hasta invalido: %s", f.Hasta)
		}
		filter.Hasta = &t
	}

	recs, total, err := s.repo.ListRecaudaciones(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecaudacionResponse, 0, len(recs))
	for i := range recs {
		out = append(out, recaudacionToResponse(&recs[i]))
	}
	p := dto.NewPaginado(out, total, f.Page, f.Limit)
	return &p, nil
}

func (s *cajaService) ObtenerRecaudacion(ctx context.Context, id uint) (*dto.RecaudacionResponse, error) {
	rec, err := s.repo.FindRecaudacion(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Recaudacion %d no encontrada", id)
	}
	if err != nil {
		return nil, err
	}
	resp := recaudacionToResponse(rec)
	return &resp, nil
}

// parseFecha accepts YYYY-MM-DD or RFC 3339. A bare date used as an upper
// bound covers the whole day.
func parseFecha(s string, finDeDia bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if finDeDia {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

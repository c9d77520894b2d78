package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	LocalID      uint            `json:"local_id"      validate:"required"`
	UsuarioID    uint            `json:"usuario_id"    validate:"required"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type MovimientoManualRequest struct {
	CajaID      uint            `json:"caja_id"     validate:"required"`
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Origen      string          `json:"origen"      validate:"omitempty,oneof=gasto ajuste otro"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
	Monto       decimal.Decimal `json:"monto"       validate:"gt=0"`
	Referencia  *string         `json:"referencia"  validate:"omitempty,max=50"`
}

type RecaudacionRequest struct {
	LocalID       uint            `json:"local_id"      validate:"required"`
	UsuarioID     uint            `json:"usuario_id"    validate:"required"`
	Monto         decimal.Decimal `json:"monto"         validate:"gt=0"`
	Observaciones *string         `json:"observaciones"`
}

// RecaudacionFilter binds the query string of GET /caja/recaudaciones.
// Desde/Hasta accept YYYY-MM-DD or RFC 3339.
type RecaudacionFilter struct {
	LocalID   *uint  `form:"local_id"`
	UsuarioID *uint  `form:"usuario_id"`
	CajaID    *uint  `form:"caja_id"`
	Desde     string `form:"desde"`
	Hasta     string `form:"hasta"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID            uint             `json:"id"`
	LocalID       uint             `json:"local_id"`
	UsuarioID     uint             `json:"usuario_id"`
	SaldoInicial  decimal.Decimal  `json:"saldo_inicial"`
	SaldoFinal    *decimal.Decimal `json:"saldo_final"`
	Saldo         decimal.Decimal  `json:"saldo"`
	FechaApertura time.Time        `json:"fecha_apertura"`
	FechaCierre   *time.Time       `json:"fecha_cierre"`
}

type AbrirCajaResponse struct {
	Message     string       `json:"message"`
	Caja        CajaResponse `json:"caja"`
	Conciliados int          `json:"pendientes_conciliados"`
}

type MovimientoCajaResponse struct {
	ID          uint            `json:"id"`
	CajaID      uint            `json:"caja_id"`
	Tipo        string          `json:"tipo"`
	Origen      string          `json:"origen"`
	Descripcion string          `json:"descripcion"`
	Monto       decimal.Decimal `json:"monto"`
	Fecha       time.Time       `json:"fecha"`
	Referencia  *string         `json:"referencia"`
}

type PendienteResponse struct {
	ID          uint            `json:"id"`
	LocalID     uint            `json:"local_id"`
	Tipo        string          `json:"tipo"`
	Origen      string          `json:"origen"`
	Descripcion string          `json:"descripcion"`
	Monto       decimal.Decimal `json:"monto"`
	Fecha       time.Time       `json:"fecha"`
	Referencia  *string         `json:"referencia"`
}

type SaldoResponse struct {
	CajaID   uint            `json:"caja_id"`
	Ingresos decimal.Decimal `json:"ingresos"`
	Egresos  decimal.Decimal `json:"egresos"`
	Saldo    decimal.Decimal `json:"saldo"`
}

type RecaudacionResponse struct {
	ID               uint            `json:"id"`
	CajaID           uint            `json:"caja_id"`
	LocalID          uint            `json:"local_id"`
	UsuarioID        uint            `json:"usuario_id"`
	MovimientoCajaID uint            `json:"movimiento_caja_id"`
	Monto            decimal.Decimal `json:"monto"`
	FechaRecaudacion time.Time       `json:"fecha_recaudacion"`
	Observaciones    *string         `json:"observaciones"`
}

type RegistrarRecaudacionResponse struct {
	Message      string              `json:"message"`
	Recaudacion  RecaudacionResponse `json:"recaudacion"`
	SaldoAntes   decimal.Decimal     `json:"saldoAntes"`
	SaldoDespues decimal.Decimal     `json:"saldoDespues"`
}

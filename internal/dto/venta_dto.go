package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	StockID        uint            `json:"stock_id"        validate:"required"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	Descuento      decimal.Decimal `json:"descuento"       validate:"min=0"` // monto por línea
}

type RegistrarVentaRequest struct {
	ClienteID   *uint              `json:"cliente_id"`
	Productos   []ItemVentaRequest `json:"productos"     validate:"required,min=1,dive"`
	Total       decimal.Decimal    `json:"total"         validate:"gt=0"`
	MedioPagoID uint               `json:"medio_pago_id" validate:"required"`
	Cuotas      int                `json:"cuotas"        validate:"omitempty,min=1"`
	UsuarioID   uint               `json:"usuario_id"    validate:"required"`
	LocalID     uint               `json:"local_id"      validate:"required"`
}

type CalcularTotalRequest struct {
	PrecioBase  decimal.Decimal `json:"precio_base"   validate:"gt=0"`
	MedioPagoID uint            `json:"medio_pago_id" validate:"required"`
	Cuotas      int             `json:"cuotas"        validate:"omitempty,min=1"`
}

type VentaFilter struct {
	LocalID *uint  `form:"local_id"`
	CajaID  *uint  `form:"caja_id"`
	Estado  string `form:"estado"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetalleVentaResponse struct {
	ID             uint            `json:"id"`
	StockID        uint            `json:"stock_id"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Descuento      decimal.Decimal `json:"descuento"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaMedioPagoResponse struct {
	MedioPagoID uint            `json:"medio_pago_id"`
	Monto       decimal.Decimal `json:"monto"`
}

type VentaResponse struct {
	ID                  uint                     `json:"id"`
	Fecha               time.Time                `json:"fecha"`
	ClienteID           *uint                    `json:"cliente_id"`
	UsuarioID           uint                     `json:"usuario_id"`
	LocalID             uint                     `json:"local_id"`
	CajaID              uint                     `json:"caja_id"`
	Total               decimal.Decimal          `json:"total"`
	DescuentoPorcentaje decimal.Decimal          `json:"descuento_porcentaje"`
	RecargoPorcentaje   decimal.Decimal          `json:"recargo_porcentaje"`
	Cuotas              int                      `json:"cuotas"`
	Estado              string                   `json:"estado"`
	Detalles            []DetalleVentaResponse   `json:"detalles"`
	MediosPago          []VentaMedioPagoResponse `json:"medios_pago"`
}

type RegistrarVentaResponse struct {
	Message          string        `json:"message"`
	Venta            VentaResponse `json:"venta"`
	MovimientoCajaID uint          `json:"movimiento_caja_id"`
}

type CalcularTotalResponse struct {
	PrecioBase         decimal.Decimal `json:"precio_base"`
	AjustePorcentual   decimal.Decimal `json:"ajuste_porcentual"`
	RecargoCuotas      decimal.Decimal `json:"porcentaje_recargo_cuotas"`
	Total              decimal.Decimal `json:"total"`
	Cuotas             int             `json:"cuotas"`
	MontoPorCuota      decimal.Decimal `json:"monto_por_cuota"`
	// Cents the floored installments leave out; added to the last one.
	DiferenciaRedondeo decimal.Decimal `json:"diferencia_redondeo"`
}

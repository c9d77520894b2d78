package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// DetalleDevolucionRequest returns Cantidad units of a sale line into StockID
// (the line's own stock row when zero) refunding Monto in total.
type DetalleDevolucionRequest struct {
	DetalleVentaID uint            `json:"detalle_venta_id" validate:"required"`
	StockID        uint            `json:"stock_id"`
	Cantidad       int             `json:"cantidad"         validate:"required,min=1"`
	Monto          decimal.Decimal `json:"monto"            validate:"min=0"`
}

type RegistrarDevolucionRequest struct {
	VentaID   uint                       `json:"venta_id"   validate:"required"`
	UsuarioID uint                       `json:"usuario_id" validate:"required"`
	LocalID   uint                       `json:"local_id"   validate:"required"`
	Motivo    *string                    `json:"motivo"`
	Detalles  []DetalleDevolucionRequest `json:"detalles"   validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetalleDevolucionResponse struct {
	ID             uint            `json:"id"`
	DetalleVentaID uint            `json:"detalle_venta_id"`
	StockID        uint            `json:"stock_id"`
	Cantidad       int             `json:"cantidad"`
	Monto          decimal.Decimal `json:"monto"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type DevolucionResponse struct {
	ID        uint                        `json:"id"`
	VentaID   uint                        `json:"venta_id"`
	UsuarioID uint                        `json:"usuario_id"`
	LocalID   uint                        `json:"local_id"`
	Motivo    *string                     `json:"motivo"`
	Total     decimal.Decimal             `json:"total"`
	Fecha     time.Time                   `json:"fecha"`
	Detalles  []DetalleDevolucionResponse `json:"detalles"`
}

type RegistrarDevolucionResponse struct {
	Message    string             `json:"message"`
	Devolucion DevolucionResponse `json:"devolucion"`
	// Destino is "caja" when the egress hit an open register, "pendiente" when it
	// was parked for the next one and "sin_movimiento" for a zero refund.
	Destino string `json:"destino_movimiento"`
	CajaID  *uint  `json:"caja_id"`
}

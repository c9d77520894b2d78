package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Devolucion is a return against a sale. Total is the sum of its detalles.
type Devolucion struct {
	ID        uint            `gorm:"primaryKey"`
	VentaID   uint            `gorm:"not null;index"`
	UsuarioID uint            `gorm:"not null"`
	LocalID   uint            `gorm:"not null"`
	Motivo    *string         `gorm:"type:text"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Fecha     time.Time       `gorm:"not null"`

	Detalles []DetalleDevolucion `gorm:"foreignKey:DevolucionID"`
}

func (Devolucion) TableName() string { return "devoluciones" }

// DetalleDevolucion returns part of one DetalleVenta into a stock slot.
type DetalleDevolucion struct {
	ID             uint            `gorm:"primaryKey"`
	DevolucionID   uint            `gorm:"not null;index"`
	DetalleVentaID uint            `gorm:"not null;index"`
	StockID        uint            `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	Monto          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"` // Monto / Cantidad
}

func (DetalleDevolucion) TableName() string { return "detalle_devolucion" }

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venta is a sale header. Only Estado may change after creation.
// Estado: "confirmada" | "anulada"
type Venta struct {
	ID                  uint            `gorm:"primaryKey"`
	Fecha               time.Time       `gorm:"not null"`
	ClienteID           *uint           `gorm:"index"`
	UsuarioID           uint            `gorm:"not null;index"`
	LocalID             uint            `gorm:"not null;index"`
	CajaID              uint            `gorm:"not null;index"`
	Total               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoPorcentaje decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	RecargoPorcentaje   decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	Cuotas              int             `gorm:"not null;default:1"`
	Estado              string          `gorm:"type:varchar(20);not null;default:'confirmada'"`
	CreatedAt           time.Time

	Detalles   []DetalleVenta   `gorm:"foreignKey:VentaID"`
	MediosPago []VentaMedioPago `gorm:"foreignKey:VentaID"`
}

// DetalleVenta is a price snapshot of one sold stock slot.
type DetalleVenta struct {
	ID             uint            `gorm:"primaryKey"`
	VentaID        uint            `gorm:"not null;index"`
	StockID        uint            `gorm:"not null;index"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // monto por línea
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (DetalleVenta) TableName() string { return "detalle_venta" }

// VentaMedioPago records how much of a sale was paid with each method.
type VentaMedioPago struct {
	ID          uint            `gorm:"primaryKey"`
	VentaID     uint            `gorm:"not null;index"`
	MedioPagoID uint            `gorm:"not null"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (VentaMedioPago) TableName() string { return "venta_medios_pago" }

// MedioPago carries a percentage adjustment: negative = descuento, positive = recargo.
type MedioPago struct {
	ID               uint            `gorm:"primaryKey"`
	Nombre           string          `gorm:"type:varchar(100);not null"`
	AjustePorcentual decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	Activo           bool            `gorm:"not null"`

	Cuotas []MedioPagoCuota `gorm:"foreignKey:MedioPagoID"`
}

func (MedioPago) TableName() string { return "medios_pago" }

// MedioPagoCuota is the surcharge for paying in a given number of installments.
type MedioPagoCuota struct {
	ID                uint            `gorm:"primaryKey"`
	MedioPagoID       uint            `gorm:"not null;uniqueIndex:uq_medio_cuotas,priority:1"`
	Cuotas            int             `gorm:"not null;uniqueIndex:uq_medio_cuotas,priority:2"`
	PorcentajeRecargo decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
}

func (MedioPagoCuota) TableName() string { return "medios_pago_cuotas" }

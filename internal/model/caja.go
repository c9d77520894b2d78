package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Caja is a cash-drawer session of one local, open while FechaCierre is nil.
// Its balance is never stored: see service.CalcularSaldo.
type Caja struct {
	ID            uint             `gorm:"primaryKey"`
	LocalID       uint             `gorm:"not null;index"`
	UsuarioID     uint             `gorm:"not null"`
	SaldoInicial  decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	SaldoFinal    *decimal.Decimal `gorm:"type:decimal(12,2)"` // SaldoInicial + saldo del ledger al cerrar
	FechaApertura time.Time        `gorm:"not null"`
	FechaCierre   *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

func (Caja) TableName() string { return "caja" }

// Abierta reports whether the register still accepts movements.
func (c *Caja) Abierta() bool { return c.FechaCierre == nil }

// MovimientoCaja is an immutable ledger entry. Monto is always positive;
// Tipo carries the sign. Entries are never modified or deleted.
type MovimientoCaja struct {
	ID          uint            `gorm:"primaryKey"`
	CajaID      uint            `gorm:"not null;index"`
	Tipo        string          `gorm:"type:varchar(10);not null"` // "ingreso" | "egreso"
	Origen      string          `gorm:"type:varchar(30);not null;default:'otro'"`
	Descripcion string          `gorm:"type:text;not null"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha       time.Time       `gorm:"not null"`
	Referencia  *string         `gorm:"type:varchar(50)"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

const (
	MovIngreso = "ingreso"
	MovEgreso  = "egreso"
)

// Origenes de MovimientoCaja
const (
	OrigenVenta             = "venta"
	OrigenDevolucion        = "devolucion"
	OrigenRetiroRecaudacion = "retiro_recaudacion"
	OrigenGasto             = "gasto"
	OrigenAjuste            = "ajuste"
	OrigenOtro              = "otro"
)

// MovimientoCajaPendiente holds a movement that arrived while its local had
// no open register. It is reconciled into the next register opened there.
type MovimientoCajaPendiente struct {
	ID               uint            `gorm:"primaryKey"`
	LocalID          uint            `gorm:"not null;index"`
	Tipo             string          `gorm:"type:varchar(10);not null"`
	Origen           string          `gorm:"type:varchar(30);not null;default:'otro'"`
	Descripcion      string          `gorm:"type:text;not null"`
	Monto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha            time.Time       `gorm:"not null"`
	Referencia       *string         `gorm:"type:varchar(50)"`
	CajaID           *uint           // set once reconciled
	MovimientoCajaID *uint
	ConciliadoAt     *time.Time
}

func (MovimientoCajaPendiente) TableName() string { return "movimientos_caja_pendientes" }

// CajaRecaudacion audits a cash pickup and links it to its egress entry.
type CajaRecaudacion struct {
	ID               uint            `gorm:"primaryKey"`
	CajaID           uint            `gorm:"not null;index"`
	LocalID          uint            `gorm:"not null;index"`
	UsuarioID        uint            `gorm:"not null;index"`
	MovimientoCajaID uint            `gorm:"not null;uniqueIndex"`
	Monto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaRecaudacion time.Time       `gorm:"not null;index"`
	Observaciones    *string         `gorm:"type:text"`

	MovimientoCaja *MovimientoCaja `gorm:"foreignKey:MovimientoCajaID"`
}

func (CajaRecaudacion) TableName() string { return "caja_recaudaciones" }

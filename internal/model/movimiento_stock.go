package model

import "time"

// MovimientoStock registra cada cambio de cantidad en una fila de stock.
type MovimientoStock struct {
	ID            uint   `gorm:"primaryKey"`
	StockID       uint   `gorm:"not null;index"`
	Tipo          string `gorm:"type:varchar(30);not null"` // see MovStock* constants
	Cantidad      int    `gorm:"not null"`                  // positive = entrada, negative = salida
	StockAnterior int    `gorm:"not null"`
	StockNuevo    int    `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uint // venta_id or devolucion_id if applicable
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

// Tipos de MovimientoStock
const (
	MovStockDistribucion  = "distribucion"
	MovStockTransfSalida  = "transferencia_salida"
	MovStockTransfEntrada = "transferencia_entrada"
	MovStockVenta         = "venta"
	MovStockDevolucion    = "devolucion"
	MovStockAjusteManual  = "ajuste_manual"
	MovStockBaja          = "baja"
)

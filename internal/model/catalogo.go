package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto is a catalog article. Estado: "activo" | "inactivo"
type Producto struct {
	ID          uint            `gorm:"primaryKey"`
	Nombre      string          `gorm:"type:varchar(150);not null"`
	Descripcion *string         `gorm:"type:text"`
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'activo'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Talle is a size variant (S, M, 42, ...).
type Talle struct {
	ID     uint   `gorm:"primaryKey"`
	Nombre string `gorm:"type:varchar(50);not null"`
}

// Local is a store location.
type Local struct {
	ID        uint   `gorm:"primaryKey"`
	Nombre    string `gorm:"type:varchar(100);not null"`
	Direccion *string
}

func (Local) TableName() string { return "locales" }

// Lugar is a physical sub-location inside a store (deposito, vidriera, ...).
type Lugar struct {
	ID     uint   `gorm:"primaryKey"`
	Nombre string `gorm:"type:varchar(100);not null"`
}

func (Lugar) TableName() string { return "lugares" }

// Estado is the condition tag of a stock slot (nuevo, fallado, ...).
type Estado struct {
	ID     uint   `gorm:"primaryKey"`
	Nombre string `gorm:"type:varchar(50);not null"`
}

// Cliente is a customer; only FechaUltimaCompra is touched by sales.
type Cliente struct {
	ID                uint   `gorm:"primaryKey"`
	Nombre            string `gorm:"type:varchar(150);not null"`
	Telefono          *string
	Email             *string
	FechaUltimaCompra *time.Time
}

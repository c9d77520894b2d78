package model

import "time"

// Stock is one physical inventory slot, identified by
// (producto, talle, local, lugar, estado). Cantidad never goes below zero.
type Stock struct {
	ID         uint    `gorm:"primaryKey"`
	ProductoID uint    `gorm:"not null;uniqueIndex:uq_stock_combinacion,priority:1"`
	TalleID    uint    `gorm:"not null;uniqueIndex:uq_stock_combinacion,priority:2"`
	LocalID    uint    `gorm:"not null;uniqueIndex:uq_stock_combinacion,priority:3;uniqueIndex:uq_stock_sku_local,priority:2"`
	LugarID    uint    `gorm:"not null;uniqueIndex:uq_stock_combinacion,priority:4"`
	EstadoID   uint    `gorm:"not null;uniqueIndex:uq_stock_combinacion,priority:5"`
	Cantidad   int     `gorm:"not null;default:0;check:chk_stock_cantidad,cantidad >= 0"`
	EnPerchero bool    `gorm:"not null"`
	CodigoSKU  *string `gorm:"type:varchar(150);uniqueIndex:uq_stock_sku_local,priority:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
	Talle    *Talle    `gorm:"foreignKey:TalleID"`
	Local    *Local    `gorm:"foreignKey:LocalID"`
	Lugar    *Lugar    `gorm:"foreignKey:LugarID"`
	Estado   *Estado   `gorm:"foreignKey:EstadoID"`
}

func (Stock) TableName() string { return "stock" }

// GrupoStock identifies every size of one product in one slot.
type GrupoStock struct {
	ProductoID uint
	LocalID    uint
	LugarID    uint
	EstadoID   uint
}

// Clave returns the full identifying tuple for one size of the group.
func (g GrupoStock) Clave(talleID uint) ClaveStock {
	return ClaveStock{
		ProductoID: g.ProductoID,
		TalleID:    talleID,
		LocalID:    g.LocalID,
		LugarID:    g.LugarID,
		EstadoID:   g.EstadoID,
	}
}

// ClaveStock is the identifying tuple of a Stock row.
type ClaveStock struct {
	ProductoID uint
	TalleID    uint
	LocalID    uint
	LugarID    uint
	EstadoID   uint
}

// Menor orders tuples member by member, producto first. Writers that lock
// several rows take them in this order.
func (k ClaveStock) Menor(o ClaveStock) bool {
	a := [...]uint{k.ProductoID, k.TalleID, k.LocalID, k.LugarID, k.EstadoID}
	b := [...]uint{o.ProductoID, o.TalleID, o.LocalID, o.LugarID, o.EstadoID}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Completa reports whether every member of the tuple is set.
func (k ClaveStock) Completa() bool {
	return k.ProductoID != 0 && k.TalleID != 0 && k.LocalID != 0 && k.LugarID != 0 && k.EstadoID != 0
}

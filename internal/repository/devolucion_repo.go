package repository

import (
	"context"

	"tiendapos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DevolucionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.Devolucion) error
	CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetalleDevolucion) error
	UpdateTotal(ctx context.Context, tx *gorm.DB, id uint, total decimal.Decimal) error
	CantidadDevuelta(ctx context.Context, tx *gorm.DB, detalleVentaID uint) (int, error)
	FindByID(ctx context.Context, id uint) (*model.Devolucion, error)
	ListByVenta(ctx context.Context, ventaID uint) ([]model.Devolucion, error)
}

type devolucionRepo struct{ db *gorm.DB }

func NewDevolucionRepository(db *gorm.DB) DevolucionRepository { return &devolucionRepo{db: db} }

func (r *devolucionRepo) Create(ctx context.Context, tx *gorm.DB, d *model.Devolucion) error {
	return conn(ctx, r.db, tx).Omit("Detalles").Create(d).Error
}

func (r *devolucionRepo) CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetalleDevolucion) error {
	return conn(ctx, r.db, tx).Create(d).Error
}

func (r *devolucionRepo) UpdateTotal(ctx context.Context, tx *gorm.DB, id uint, total decimal.Decimal) error {
	return conn(ctx, r.db, tx).Model(&model.Devolucion{}).Where("id = ?", id).Update("total", total).Error
}

// CantidadDevuelta sums every prior return against one sale line.
func (r *devolucionRepo) CantidadDevuelta(ctx context.Context, tx *gorm.DB, detalleVentaID uint) (int, error) {
	var total int64
	err := conn(ctx, r.db, tx).Model(&model.DetalleDevolucion{}).
		Where("detalle_venta_id = ?", detalleVentaID).
		Select("COALESCE(SUM(cantidad), 0)").Scan(&total).Error
	return int(total), err
}

func (r *devolucionRepo) FindByID(ctx context.Context, id uint) (*model.Devolucion, error) {
	var d model.Devolucion
	err := r.db.WithContext(ctx).Preload("Detalles").First(&d, id).Error
	return &d, err
}

func (r *devolucionRepo) ListByVenta(ctx context.Context, ventaID uint) ([]model.Devolucion, error) {
	var ds []model.Devolucion
	err := r.db.WithContext(ctx).Preload("Detalles").Where("venta_id = ?", ventaID).
		Order("fecha ASC, id ASC").Find(&ds).Error
	return ds, err
}

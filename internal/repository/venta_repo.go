package repository

import (
	"context"

	"tiendapos/internal/model"

	"gorm.io/gorm"
)

// VentaFilter defines filters for listing sales.
type VentaFilter struct {
	LocalID *uint
	CajaID  *uint
	Estado  string
	Page    int
	Limit   int
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uint) (*model.Venta, error)
	FindDetalle(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.DetalleVenta, error)
	UpdateEstado(ctx context.Context, id uint, estado string) error
	List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

// Create inserts the header together with its Detalles and MediosPago.
func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uint) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Detalles").Preload("MediosPago").First(&v, id).Error
	return &v, err
}

// FindDetalle locks the sale line when lock is set so concurrent returns
// against the same line serialize.
func (r *ventaRepo) FindDetalle(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.DetalleVenta, error) {
	q := conn(ctx, r.db, tx)
	if lock {
		q = forUpdate(q)
	}
	var d model.DetalleVenta
	err := q.First(&d, id).Error
	return &d, err
}

func (r *ventaRepo) UpdateEstado(ctx context.Context, id uint, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *ventaRepo) List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.LocalID != nil {
		q = q.Where("local_id = ?", *filter.LocalID)
	}
	if filter.CajaID != nil {
		q = q.Where("caja_id = ?", *filter.CajaID)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit)
	var ventas []model.Venta
	err := q.Preload("Detalles").Preload("MediosPago").
		Order("fecha DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&ventas).Error
	return ventas, total, err
}

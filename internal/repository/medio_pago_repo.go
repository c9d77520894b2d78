package repository

import (
	"context"

	"tiendapos/internal/model"

	"gorm.io/gorm"
)

type MedioPagoRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.MedioPago, error)
	FindCuota(ctx context.Context, tx *gorm.DB, medioPagoID uint, cuotas int) (*model.MedioPagoCuota, error)
	ListActivos(ctx context.Context) ([]model.MedioPago, error)
}

type medioPagoRepo struct{ db *gorm.DB }

func NewMedioPagoRepository(db *gorm.DB) MedioPagoRepository { return &medioPagoRepo{db: db} }

func (r *medioPagoRepo) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.MedioPago, error) {
	var m model.MedioPago
	err := conn(ctx, r.db, tx).First(&m, id).Error
	return &m, err
}

func (r *medioPagoRepo) FindCuota(ctx context.Context, tx *gorm.DB, medioPagoID uint, cuotas int) (*model.MedioPagoCuota, error) {
	var c model.MedioPagoCuota
	err := conn(ctx, r.db, tx).Where("medio_pago_id = ? AND cuotas = ?", medioPagoID, cuotas).First(&c).Error
	return &c, err
}

func (r *medioPagoRepo) ListActivos(ctx context.Context) ([]model.MedioPago, error) {
	var ms []model.MedioPago
	err := r.db.WithContext(ctx).Preload("Cuotas").Where("activo = ?", true).Order("nombre ASC").Find(&ms).Error
	return ms, err
}

package repository

import (
	"context"
	"time"

	"tiendapos/internal/model"

	"gorm.io/gorm"
)

// CatalogoRepository reads the reference tables stock slots are built from.
type CatalogoRepository interface {
	FindProducto(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error)
	UpdateProductoEstado(ctx context.Context, tx *gorm.DB, id uint, estado string) error
	DeleteProducto(ctx context.Context, tx *gorm.DB, id uint) error
	FindTalles(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]model.Talle, error)
	FindLocales(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]model.Local, error)
	FindLugar(ctx context.Context, tx *gorm.DB, id uint) (*model.Lugar, error)
	FindEstado(ctx context.Context, tx *gorm.DB, id uint) (*model.Estado, error)
	FindCliente(ctx context.Context, tx *gorm.DB, id uint) (*model.Cliente, error)
	TouchUltimaCompra(ctx context.Context, tx *gorm.DB, clienteID uint, at time.Time) error
}

type catalogoRepo struct{ db *gorm.DB }

func NewCatalogoRepository(db *gorm.DB) CatalogoRepository { return &catalogoRepo{db: db} }

func (r *catalogoRepo) FindProducto(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error) {
	var p model.Producto
	err := conn(ctx, r.db, tx).First(&p, id).Error
	return &p, err
}

func (r *catalogoRepo) UpdateProductoEstado(ctx context.Context, tx *gorm.DB, id uint, estado string) error {
	return conn(ctx, r.db, tx).Model(&model.Producto{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *catalogoRepo) DeleteProducto(ctx context.Context, tx *gorm.DB, id uint) error {
	return conn(ctx, r.db, tx).Delete(&model.Producto{}, id).Error
}

func (r *catalogoRepo) FindTalles(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]model.Talle, error) {
	var talles []model.Talle
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Find(&talles).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]model.Talle, len(talles))
	for _, t := range talles {
		out[t.ID] = t
	}
	return out, nil
}

func (r *catalogoRepo) FindLocales(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]model.Local, error) {
	var locales []model.Local
	if err := conn(ctx, r.db, tx).Where("id IN ?", ids).Find(&locales).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]model.Local, len(locales))
	for _, l := range locales {
		out[l.ID] = l
	}
	return out, nil
}

func (r *catalogoRepo) FindLugar(ctx context.Context, tx *gorm.DB, id uint) (*model.Lugar, error) {
	var l model.Lugar
	err := conn(ctx, r.db, tx).First(&l, id).Error
	return &l, err
}

func (r *catalogoRepo) FindEstado(ctx context.Context, tx *gorm.DB, id uint) (*model.Estado, error) {
	var e model.Estado
	err := conn(ctx, r.db, tx).First(&e, id).Error
	return &e, err
}

func (r *catalogoRepo) FindCliente(ctx context.Context, tx *gorm.DB, id uint) (*model.Cliente, error) {
	var c model.Cliente
	err := conn(ctx, r.db, tx).First(&c, id).Error
	return &c, err
}

func (r *catalogoRepo) TouchUltimaCompra(ctx context.Context, tx *gorm.DB, clienteID uint, at time.Time) error {
	return conn(ctx, r.db, tx).Model(&model.Cliente{}).Where("id = ?", clienteID).
		Update("fecha_ultima_compra", at).Error
}

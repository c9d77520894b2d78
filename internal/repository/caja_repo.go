package repository

import (
	"context"
	"time"

	"tiendapos/internal/model"

	"gorm.io/gorm"
)

// RecaudacionFilter defines filters for listing cash pickups.
type RecaudacionFilter struct {
	LocalID   *uint
	UsuarioID *uint
	CajaID    *uint
	Desde     *time.Time
	Hasta     *time.Time
	Page      int
	Limit     int
}

type CajaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.Caja) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.Caja, error)
	FindAbiertaPorLocal(ctx context.Context, tx *gorm.DB, localID uint, lock bool) (*model.Caja, error)
	FindAbiertaPorLocalUsuario(ctx context.Context, tx *gorm.DB, localID, usuarioID uint) (*model.Caja, error)
	LocalesConCajaAbierta(ctx context.Context) ([]uint, error)
	Cerrar(ctx context.Context, tx *gorm.DB, c *model.Caja) error

	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, tx *gorm.DB, cajaID uint) ([]model.MovimientoCaja, error)

	CreatePendiente(ctx context.Context, tx *gorm.DB, p *model.MovimientoCajaPendiente) error
	ListPendientes(ctx context.Context, tx *gorm.DB, localID uint, lock bool) ([]model.MovimientoCajaPendiente, error)
	LocalesConPendientes(ctx context.Context) ([]uint, error)
	MarcarConciliado(ctx context.Context, tx *gorm.DB, p *model.MovimientoCajaPendiente) error

	CreateRecaudacion(ctx context.Context, tx *gorm.DB, r *model.CajaRecaudacion) error
	FindRecaudacion(ctx context.Context, id uint) (*model.CajaRecaudacion, error)
	ListRecaudaciones(ctx context.Context, filter RecaudacionFilter) ([]model.CajaRecaudacion, int64, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Caja) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.Caja, error) {
	q := conn(ctx, r.db, tx)
	if lock {
		q = forUpdate(q)
	}
	var c model.Caja
	err := q.First(&c, id).Error
	return &c, err
}

// FindAbiertaPorLocal returns the most recently opened register of the local
// that has not been closed yet.
func (r *cajaRepo) FindAbiertaPorLocal(ctx context.Context, tx *gorm.DB, localID uint, lock bool) (*model.Caja, error) {
	q := conn(ctx, r.db, tx).Where("local_id = ? AND fecha_cierre IS NULL", localID)
	if lock {
		q = forUpdate(q)
	}
	var c model.Caja
	err := q.Order("fecha_apertura DESC, id DESC").First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaPorLocalUsuario(ctx context.Context, tx *gorm.DB, localID, usuarioID uint) (*model.Caja, error) {
	var c model.Caja
	err := conn(ctx, r.db, tx).
		Where("local_id = ? AND usuario_id = ? AND fecha_cierre IS NULL", localID, usuarioID).
		Order("fecha_apertura DESC, id DESC").First(&c).Error
	return &c, err
}

func (r *cajaRepo) LocalesConCajaAbierta(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Caja{}).
		Where("fecha_cierre IS NULL").Distinct().Pluck("local_id", &ids).Error
	return ids, err
}

func (r *cajaRepo) Cerrar(ctx context.Context, tx *gorm.DB, c *model.Caja) error {
	return conn(ctx, r.db, tx).Model(c).Updates(map[string]any{
		"fecha_cierre": c.FechaCierre,
		"saldo_final":  c.SaldoFinal,
	}).Error
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, tx *gorm.DB, cajaID uint) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(ctx, r.db, tx).Where("caja_id = ?", cajaID).Order("fecha ASC, id ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) CreatePendiente(ctx context.Context, tx *gorm.DB, p *model.MovimientoCajaPendiente) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

// ListPendientes returns the unreconciled movements of a local in arrival order.
func (r *cajaRepo) ListPendientes(ctx context.Context, tx *gorm.DB, localID uint, lock bool) ([]model.MovimientoCajaPendiente, error) {
	q := conn(ctx, r.db, tx).Where("local_id = ? AND conciliado_at IS NULL", localID)
	if lock {
		q = forUpdate(q)
	}
	var ps []model.MovimientoCajaPendiente
	err := q.Order("fecha ASC, id ASC").Find(&ps).Error
	return ps, err
}

func (r *cajaRepo) LocalesConPendientes(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.MovimientoCajaPendiente{}).
		Where("conciliado_at IS NULL").Distinct().Pluck("local_id", &ids).Error
	return ids, err
}

func (r *cajaRepo) MarcarConciliado(ctx context.Context, tx *gorm.DB, p *model.MovimientoCajaPendiente) error {
	return conn(ctx, r.db, tx).Model(p).Updates(map[string]any{
		"caja_id":            p.CajaID,
		"movimiento_caja_id": p.MovimientoCajaID,
		"conciliado_at":      p.ConciliadoAt,
	}).Error
}

func (r *cajaRepo) CreateRecaudacion(ctx context.Context, tx *gorm.DB, rec *model.CajaRecaudacion) error {
	return conn(ctx, r.db, tx).Omit("MovimientoCaja").Create(rec).Error
}

func (r *cajaRepo) FindRecaudacion(ctx context.Context, id uint) (*model.CajaRecaudacion, error) {
	var rec model.CajaRecaudacion
	err := r.db.WithContext(ctx).Preload("MovimientoCaja").First(&rec, id).Error
	return &rec, err
}

func (r *cajaRepo) ListRecaudaciones(ctx context.Context, filter RecaudacionFilter) ([]model.CajaRecaudacion, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CajaRecaudacion{})
	if filter.LocalID != nil {
		q = q.Where("local_id = ?", *filter.LocalID)
	}
	if filter.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.CajaID != nil {
		q = q.Where("caja_id = ?", *filter.CajaID)
	}
	if filter.Desde != nil {
		q = q.Where("fecha_recaudacion >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha_recaudacion <= ?", *filter.Hasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit)
	var recs []model.CajaRecaudacion
	err := q.Preload("MovimientoCaja").
		Order("fecha_recaudacion DESC, id DESC").
		Offset(offset).Limit(limit).Find(&recs).Error
	return recs, total, err
}

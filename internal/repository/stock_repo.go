package repository

import (
	"context"
	"time"

	"tiendapos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLookup is the result of a point lookup by identifying tuple:
// either Found(existing) or Absent.
type StockLookup struct{ existing *model.Stock }

func StockFound(s *model.Stock) StockLookup { return StockLookup{existing: s} }

func StockAbsent() StockLookup { return StockLookup{} }

// Found returns the existing row and true, or nil and false when absent.
func (l StockLookup) Found() (*model.Stock, bool) { return l.existing, l.existing != nil }

// StockFilter defines filters for listing stock rows.
type StockFilter struct {
	ProductoID   *uint
	LocalID      *uint
	LugarID      *uint
	EstadoID     *uint
	SoloConStock bool
	Page         int
	Limit        int
}

type StockRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.Stock, error)
	Lookup(ctx context.Context, tx *gorm.DB, k model.ClaveStock, lock bool) (StockLookup, error)
	LookupOther(ctx context.Context, tx *gorm.DB, k model.ClaveStock, excluirID uint) (StockLookup, error)
	ListGrupo(ctx context.Context, tx *gorm.DB, g model.GrupoStock, lock bool) ([]model.Stock, error)
	ListByProducto(ctx context.Context, tx *gorm.DB, productoID uint, lock bool) ([]model.Stock, error)
	SKUTomado(ctx context.Context, tx *gorm.DB, sku string, localID, excluirID uint) (bool, error)
	UpsertMany(ctx context.Context, tx *gorm.DB, rows []model.Stock) error
	Create(ctx context.Context, tx *gorm.DB, s *model.Stock) error
	Save(ctx context.Context, tx *gorm.DB, s *model.Stock) error
	AjustarCantidad(ctx context.Context, tx *gorm.DB, id uint, delta int) (bool, error)
	SetCantidad(ctx context.Context, tx *gorm.DB, id uint, cantidad int) error
	Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error
	ConVentas(ctx context.Context, tx *gorm.DB, ids ...uint) (map[uint]bool, error)
	List(ctx context.Context, filter StockFilter) ([]model.Stock, int64, error)
	BuscarParaVenta(ctx context.Context, q string, localID *uint, limit int) ([]model.Stock, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func whereClave(q *gorm.DB, k model.ClaveStock) *gorm.DB {
	return q.Where("producto_id = ? AND talle_id = ? AND local_id = ? AND lugar_id = ? AND estado_id = ?",
		k.ProductoID, k.TalleID, k.LocalID, k.LugarID, k.EstadoID)
}

func (r *stockRepo) FindByID(ctx context.Context, tx *gorm.DB, id uint, lock bool) (*model.Stock, error) {
	q := conn(ctx, r.db, tx)
	if lock {
		q = forUpdate(q)
	}
	var s model.Stock
	err := q.First(&s, id).Error
	return &s, err
}

func (r *stockRepo) Lookup(ctx context.Context, tx *gorm.DB, k model.ClaveStock, lock bool) (StockLookup, error) {
	q := whereClave(conn(ctx, r.db, tx), k)
	if lock {
		q = forUpdate(q)
	}
	return firstLookup(q)
}

// LookupOther finds a row with the tuple k other than excluirID; used to
// detect that an edit would collide with an existing slot.
func (r *stockRepo) LookupOther(ctx context.Context, tx *gorm.DB, k model.ClaveStock, excluirID uint) (StockLookup, error) {
	q := forUpdate(whereClave(conn(ctx, r.db, tx), k).Where("id <> ?", excluirID))
	return firstLookup(q)
}

func firstLookup(q *gorm.DB) (StockLookup, error) {
	var rows []model.Stock
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return StockAbsent(), err
	}
	if len(rows) == 0 {
		return StockAbsent(), nil
	}
	return StockFound(&rows[0]), nil
}

func (r *stockRepo) ListGrupo(ctx context.Context, tx *gorm.DB, g model.GrupoStock, lock bool) ([]model.Stock, error) {
	q := conn(ctx, r.db, tx).
		Where("producto_id = ? AND local_id = ? AND lugar_id = ? AND estado_id = ?",
			g.ProductoID, g.LocalID, g.LugarID, g.EstadoID)
	if lock {
		q = forUpdate(q)
	}
	var rows []model.Stock
	err := q.Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *stockRepo) ListByProducto(ctx context.Context, tx *gorm.DB, productoID uint, lock bool) ([]model.Stock, error) {
	q := conn(ctx, r.db, tx).Where("producto_id = ?", productoID)
	if lock {
		q = forUpdate(q)
	}
	var rows []model.Stock
	err := q.Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *stockRepo) SKUTomado(ctx context.Context, tx *gorm.DB, sku string, localID, excluirID uint) (bool, error) {
	var n int64
	q := conn(ctx, r.db, tx).Model(&model.Stock{}).Where("codigo_sku = ? AND local_id = ?", sku, localID)
	if excluirID != 0 {
		q = q.Where("id <> ?", excluirID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// UpsertMany inserts rows or, when the identifying tuple already exists,
// overwrites cantidad, en_perchero and codigo_sku.
func (r *stockRepo) UpsertMany(ctx context.Context, tx *gorm.DB, rows []model.Stock) error {
	if len(rows) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "producto_id"}, {Name: "talle_id"}, {Name: "local_id"}, {Name: "lugar_id"}, {Name: "estado_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"cantidad", "en_perchero", "codigo_sku", "updated_at"}),
	}).Create(&rows).Error
}

func (r *stockRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Stock) error {
	return conn(ctx, r.db, tx).Create(s).Error
}

func (r *stockRepo) Save(ctx context.Context, tx *gorm.DB, s *model.Stock) error {
	return conn(ctx, r.db, tx).Save(s).Error
}

// AjustarCantidad applies delta and reports false, without writing, when the
// row is missing or the result would be negative.
func (r *stockRepo) AjustarCantidad(ctx context.Context, tx *gorm.DB, id uint, delta int) (bool, error) {
	res := conn(ctx, r.db, tx).Model(&model.Stock{}).
		Where("id = ? AND cantidad + ? >= 0", id, delta).
		Updates(map[string]any{
			"cantidad":   gorm.Expr("cantidad + ?", delta),
			"updated_at": time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *stockRepo) SetCantidad(ctx context.Context, tx *gorm.DB, id uint, cantidad int) error {
	return conn(ctx, r.db, tx).Model(&model.Stock{}).Where("id = ?", id).
		Updates(map[string]any{"cantidad": cantidad, "updated_at": time.Now()}).Error
}

func (r *stockRepo) Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Delete(&model.Stock{}, ids).Error
}

// ConVentas returns the subset of ids referenced by at least one sale line.
func (r *stockRepo) ConVentas(ctx context.Context, tx *gorm.DB, ids ...uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if len(ids) == 0 {
		return out, nil
	}
	var found []uint
	err := conn(ctx, r.db, tx).Model(&model.DetalleVenta{}).
		Where("stock_id IN ?", ids).
		Distinct().Pluck("stock_id", &found).Error
	for _, id := range found {
		out[id] = true
	}
	return out, err
}

func (r *stockRepo) List(ctx context.Context, filter StockFilter) ([]model.Stock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Stock{})
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}
	if filter.LocalID != nil {
		q = q.Where("local_id = ?", *filter.LocalID)
	}
	if filter.LugarID != nil {
		q = q.Where("lugar_id = ?", *filter.LugarID)
	}
	if filter.EstadoID != nil {
		q = q.Where("estado_id = ?", *filter.EstadoID)
	}
	if filter.SoloConStock {
		q = q.Where("cantidad > 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit)
	var rows []model.Stock
	err := q.Preload("Producto").Preload("Talle").Preload("Local").Preload("Lugar").Preload("Estado").
		Order("id ASC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// BuscarParaVenta matches rows with cantidad > 0 by SKU or product name.
func (r *stockRepo) BuscarParaVenta(ctx context.Context, q string, localID *uint, limit int) ([]model.Stock, error) {
	like := "%" + q + "%"
	query := r.db.WithContext(ctx).Model(&model.Stock{}).
		Joins("JOIN productos ON productos.id = stock.producto_id").
		Where("stock.cantidad > 0").
		Where("(stock.codigo_sku LIKE ? OR LOWER(productos.nombre) LIKE LOWER(?))", like, like)
	if localID != nil {
		query = query.Where("stock.local_id = ?", *localID)
	}
	var rows []model.Stock
	err := query.Preload("Producto").Preload("Talle").Preload("Local").Preload("Lugar").Preload("Estado").
		Order("stock.id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

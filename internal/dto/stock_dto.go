package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type TalleCantidad struct {
	TalleID  uint `json:"talle_id" validate:"required"`
	Cantidad int  `json:"cantidad"`
}

// DistribuirRequest accepts either locales[] or a single local_id.
type DistribuirRequest struct {
	ProductoID uint            `json:"producto_id" validate:"required"`
	Locales    []uint          `json:"locales"     validate:"omitempty,dive,required"`
	LocalID    uint            `json:"local_id"`
	LugarID    uint            `json:"lugar_id"    validate:"required"`
	EstadoID   uint            `json:"estado_id"   validate:"required"`
	EnPerchero *bool           `json:"en_perchero"`
	Talles     []TalleCantidad `json:"talles"      validate:"required,min=1,dive"`
}

// DestinoLocales merges locales[] and local_id without duplicates.
func (r DistribuirRequest) DestinoLocales() []uint {
	seen := make(map[uint]bool)
	var out []uint
	for _, id := range append(append([]uint{}, r.Locales...), r.LocalID) {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type GrupoStockRequest struct {
	ProductoID uint  `json:"producto_id" validate:"required"`
	LocalID    uint  `json:"local_id"    validate:"required"`
	LugarID    uint  `json:"lugar_id"    validate:"required"`
	EstadoID   uint  `json:"estado_id"   validate:"required"`
	EnPerchero *bool `json:"en_perchero"`
}

type TransferirRequest struct {
	GrupoOriginal GrupoStockRequest `json:"grupoOriginal" validate:"required"`
	NuevoGrupo    GrupoStockRequest `json:"nuevoGrupo"    validate:"required"`
	Talles        []TalleCantidad   `json:"talles"        validate:"required,min=1,dive"`
}

type StockRequest struct {
	ProductoID uint  `json:"producto_id" validate:"required"`
	TalleID    uint  `json:"talle_id"    validate:"required"`
	LocalID    uint  `json:"local_id"    validate:"required"`
	LugarID    uint  `json:"lugar_id"    validate:"required"`
	EstadoID   uint  `json:"estado_id"   validate:"required"`
	Cantidad   int   `json:"cantidad"    validate:"min=0"`
	EnPerchero *bool `json:"en_perchero"`
}

type StockFilter struct {
	ProductoID *uint `form:"producto_id"`
	LocalID    *uint `form:"local_id"`
	LugarID    *uint `form:"lugar_id"`
	EstadoID   *uint `form:"estado_id"`
	ConStock   bool  `form:"con_stock"`
	Page       int   `form:"page"`
	Limit      int   `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockResponse struct {
	ID         uint    `json:"id"`
	ProductoID uint    `json:"producto_id"`
	TalleID    uint    `json:"talle_id"`
	LocalID    uint    `json:"local_id"`
	LugarID    uint    `json:"lugar_id"`
	EstadoID   uint    `json:"estado_id"`
	Cantidad   int     `json:"cantidad"`
	EnPerchero bool    `json:"en_perchero"`
	CodigoSKU  *string `json:"codigo_sku"`
	Producto   string  `json:"producto,omitempty"`
	Talle      string  `json:"talle,omitempty"`
	Local      string  `json:"local,omitempty"`
	Lugar      string  `json:"lugar,omitempty"`
	Estado     string  `json:"estado,omitempty"`
}

type DistribuirResponse struct {
	Message string          `json:"message"`
	Stock   []StockResponse `json:"stock"`
}

type TransferirResponse struct {
	Message string          `json:"message"`
	Origen  []StockResponse `json:"origen"`
	Destino []StockResponse `json:"destino"`
}

type StockMutacionResponse struct {
	Message string         `json:"message"`
	Stock   *StockResponse `json:"stock,omitempty"`
	// Fusionado is set when the write landed on an existing row for the same slot.
	Fusionado bool `json:"fusionado"`
}

type EliminarStockResponse struct {
	Message   string         `json:"message"`
	Eliminado bool           `json:"eliminado"`
	Stock     *StockResponse `json:"stock,omitempty"`
}

type EliminarGrupoResponse struct {
	Message     string `json:"message"`
	Eliminados  int    `json:"eliminados"`
	Conservados int    `json:"conservados"`
}

type EliminarProductoResponse struct {
	Message   string `json:"message"`
	Eliminado bool   `json:"eliminado"`
	Filas     int    `json:"filas_stock"`
}

type MovimientoStockResponse struct {
	ID            uint      `json:"id"`
	StockID       uint      `json:"stock_id"`
	Tipo          string    `json:"tipo"`
	Cantidad      int       `json:"cantidad"`
	StockAnterior int       `json:"stock_anterior"`
	StockNuevo    int       `json:"stock_nuevo"`
	Motivo        string    `json:"motivo"`
	ReferenciaID  *uint     `json:"referencia_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Paginado is the envelope of every paged listing.
type Paginado[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginado normalizes page/limit the same way the repositories do.
func NewPaginado[T any](data []T, total int64, page, limit int) Paginado[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	if data == nil {
		data = []T{}
	}
	return Paginado[T]{Data: data, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

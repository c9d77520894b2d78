package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/metrics"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"
	"tiendapos/internal/sku"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type StockService interface {
	Distribuir(ctx context.Context, req dto.DistribuirRequest) (*dto.DistribuirResponse, error)
	Transferir(ctx context.Context, req dto.TransferirRequest) (*dto.TransferirResponse, error)
	Crear(ctx context.Context, req dto.StockRequest) (*dto.StockMutacionResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.StockRequest) (*dto.StockMutacionResponse, error)
	Eliminar(ctx context.Context, id uint) (*dto.EliminarStockResponse, error)
	EliminarGrupo(ctx context.Context, req dto.GrupoStockRequest) (*dto.EliminarGrupoResponse, error)
	EliminarProducto(ctx context.Context, productoID uint) (*dto.EliminarProductoResponse, error)
	Listar(ctx context.Context, filter dto.StockFilter) (*dto.Paginado[dto.StockResponse], error)
	BuscarParaVenta(ctx context.Context, q string, localID *uint) ([]dto.StockResponse, error)
	ListarMovimientos(ctx context.Context, stockID uint, page, limit int) (*dto.Paginado[dto.MovimientoStockResponse], error)
}

type stockService struct {
	tx       *repository.TxRunner
	stock    repository.StockRepository
	catalogo repository.CatalogoRepository
	movs     repository.MovimientoStockRepository
}

func NewStockService(
	tx *repository.TxRunner,
	stock repository.StockRepository,
	catalogo repository.CatalogoRepository,
	movs repository.MovimientoStockRepository,
) StockService {
	return &stockService{tx: tx, stock: stock, catalogo: catalogo, movs: movs}
}

// nombres carries the display names a SKU is built from.
type nombres struct {
	producto string
	talles   map[uint]model.Talle
	locales  map[uint]model.Local
	lugar    string
}

func (n nombres) sku(talleID, localID uint) string {
	return sku.Build(n.producto, n.talles[talleID].Nombre, n.locales[localID].Nombre, n.lugar)
}

// skuReservas tracks codes handed out earlier in the same transaction and
// not yet visible to SKUTomado.
type skuReservas map[string]bool

func (r skuReservas) key(code string, localID uint) string { return fmt.Sprintf("%d|%s", localID, code) }

// resolverSKU finds a code unique within the local, ignoring the row being
// rewritten (excluirID) so an unchanged slot keeps its current code.
func (s *stockService) resolverSKU(ctx context.Context, tx *gorm.DB, base string, localID, excluirID uint, reservas skuReservas) (string, error) {
	code, err := sku.Resolve(base, func(candidate string) (bool, error) {
		if reservas != nil && reservas[reservas.key(candidate, localID)] {
			return true, nil
		}
		return s.stock.SKUTomado(ctx, tx, candidate, localID, excluirID)
	})
	if errors.Is(err, sku.ErrAgotado) {
		return "", apierror.NewConflict("No se pudo generar un SKU unico para %q en el local %d", base, localID)
	}
	if err != nil {
		return "", err
	}
	if reservas != nil {
		reservas[reservas.key(code, localID)] = true
	}
	return code, nil
}

// cargarNombres loads every reference the operation touches and rejects
// unknown ids before anything is written.
func (s *stockService) cargarNombres(ctx context.Context, tx *gorm.DB, productoID, lugarID, estadoID uint, localIDs, talleIDs []uint) (nombres, error) {
	var n nombres
	producto, err := s.catalogo.FindProducto(ctx, tx, productoID)
	if repository.IsNotFound(err) {
		return n, apierror.NewNotFound("Producto %d no encontrado", productoID)
	}
	if err != nil {
		return n, err
	}
	lugar, err := s.catalogo.FindLugar(ctx, tx, lugarID)
	if repository.IsNotFound(err) {
		return n, apierror.NewNotFound("Lugar %d no encontrado", lugarID)
	}
	if err != nil {
		return n, err
	}
	if _, err := s.catalogo.FindEstado(ctx, tx, estadoID); repository.IsNotFound(err) {
		return n, apierror.NewNotFound("Estado %d no encontrado", estadoID)
	} else if err != nil {
		return n, err
	}

	locales, err := s.catalogo.FindLocales(ctx, tx, localIDs)
	if err != nil {
		return n, err
	}
	for _, id := range localIDs {
		if _, ok := locales[id]; !ok {
			return n, apierror.NewValidationf("El local %d no existe", id)
		}
	}
	talles, err := s.catalogo.FindTalles(ctx, tx, talleIDs)
	if err != nil {
		return n, err
	}
	for _, id := range talleIDs {
		if _, ok := talles[id]; !ok {
			return n, apierror.NewValidationf("El talle %d no existe", id)
		}
	}
	return nombres{producto: producto.Nombre, talles: talles, locales: locales, lugar: lugar.Nombre}, nil
}

// ── Distribuir ────────────────────────────────────────────────────────────────

// Distribuir sets the quantity of every (local × talle) slot to the requested
// value. Re-running the same request leaves the same rows behind.
func (s *stockService) Distribuir(ctx context.Context, req dto.DistribuirRequest) (*dto.DistribuirResponse, error) {
	locales := req.DestinoLocales()
	if req.ProductoID == 0 || req.LugarID == 0 || req.EstadoID == 0 {
		return nil, apierror.NewValidationf("producto_id, lugar_id y estado_id son obligatorios")
	}
	if len(locales) == 0 {
		return nil, apierror.NewValidationf("Debe indicar al menos un local")
	}
	if len(req.Talles) == 0 {
		return nil, apierror.NewValidationf("Debe indicar al menos un talle")
	}

	// Entries with cantidad <= 0 are dropped; a repeated talle keeps its last value.
	cantidades := make(map[uint]int)
	var talleIDs []uint
	for _, t := range req.Talles {
		if t.TalleID == 0 || t.Cantidad <= 0 {
			continue
		}
		if _, seen := cantidades[t.TalleID]; !seen {
			talleIDs = append(talleIDs, t.TalleID)
		}
		cantidades[t.TalleID] = t.Cantidad
	}
	if len(talleIDs) == 0 {
		return nil, apierror.NewValidationf("Ningun talle tiene cantidad mayor a cero")
	}

	var result []model.Stock
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		n, err := s.cargarNombres(ctx, tx, req.ProductoID, req.LugarID, req.EstadoID, locales, talleIDs)
		if err != nil {
			return err
		}

		claves := make([]model.ClaveStock, 0, len(locales)*len(talleIDs))
		for _, localID := range locales {
			grupo := model.GrupoStock{ProductoID: req.ProductoID, LocalID: localID, LugarID: req.LugarID, EstadoID: req.EstadoID}
			for _, talleID := range talleIDs {
				claves = append(claves, grupo.Clave(talleID))
			}
		}
		bloqueadas, err := bloquearClaves(ctx, tx, s.stock, claves)
		if err != nil {
			return err
		}

		reservas := skuReservas{}
		rows := make([]model.Stock, 0, len(claves))
		previos := make([]*model.Stock, 0, len(claves))
		for _, clave := range claves {
			localID, talleID := clave.LocalID, clave.TalleID
			existing, found := bloqueadas[clave].Found()

			var excluir uint
			enPerchero := true
			if found {
				excluir = existing.ID
				enPerchero = existing.EnPerchero
			}
			if req.EnPerchero != nil {
				enPerchero = *req.EnPerchero
			}
			code, err := s.resolverSKU(ctx, tx, n.sku(talleID, localID), localID, excluir, reservas)
			if err != nil {
				return err
			}
			rows = append(rows, model.Stock{
				ProductoID: clave.ProductoID,
				TalleID:    clave.TalleID,
				LocalID:    clave.LocalID,
				LugarID:    clave.LugarID,
				EstadoID:   clave.EstadoID,
				Cantidad:   cantidades[talleID],
				EnPerchero: enPerchero,
				CodigoSKU:  strPtr(code),
			})
			previos = append(previos, existing)
		}

		if err := s.stock.UpsertMany(ctx, tx, rows); err != nil {
			return err
		}

		var auditoria []model.MovimientoStock
		for i := range rows {
			anterior := 0
			if previos[i] != nil {
				rows[i].ID = previos[i].ID
				anterior = previos[i].Cantidad
			}
			if rows[i].ID == 0 || anterior == rows[i].Cantidad {
				continue
			}
			auditoria = append(auditoria, model.MovimientoStock{
				StockID:       rows[i].ID,
				Tipo:          model.MovStockDistribucion,
				Cantidad:      rows[i].Cantidad - anterior,
				StockAnterior: anterior,
				StockNuevo:    rows[i].Cantidad,
				Motivo:        "distribucion",
			})
		}
		if err := s.movs.CreateMany(ctx, tx, auditoria); err != nil {
			return err
		}
		result = rows
		return nil
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al distribuir stock", err)
	}

	log.Info().Uint("producto_id", req.ProductoID).Int("filas", len(result)).Msg("stock distribuido")
	return &dto.DistribuirResponse{Message: "Stock distribuido correctamente", Stock: stocksToResponse(result)}, nil
}

// ── Transferir ────────────────────────────────────────────────────────────────

func grupoDe(g dto.GrupoStockRequest) model.GrupoStock {
	return model.GrupoStock{ProductoID: g.ProductoID, LocalID: g.LocalID, LugarID: g.LugarID, EstadoID: g.EstadoID}
}

func grupoCompleto(g model.GrupoStock) bool {
	return g.ProductoID != 0 && g.LocalID != 0 && g.LugarID != 0 && g.EstadoID != 0
}

// Transferir moves quantities between two groups. Destination rows are added
// to, source rows are decremented and kept even at zero. Either every talle
// moves or none does.
func (s *stockService) Transferir(ctx context.Context, req dto.TransferirRequest) (*dto.TransferirResponse, error) {
	origen, destino := grupoDe(req.GrupoOriginal), grupoDe(req.NuevoGrupo)
	if !grupoCompleto(origen) || !grupoCompleto(destino) {
		return nil, apierror.NewValidationf("grupoOriginal y nuevoGrupo requieren producto_id, local_id, lugar_id y estado_id")
	}
	if origen == destino {
		return nil, apierror.NewValidationf("El grupo de origen y el de destino son el mismo")
	}
	if len(req.Talles) == 0 {
		return nil, apierror.NewValidationf("Debe indicar al menos un talle")
	}

	cantidades := make(map[uint]int)
	for _, t := range req.Talles {
		if t.TalleID == 0 || t.Cantidad <= 0 {
			return nil, apierror.NewValidationf("Cada talle requiere talle_id y cantidad mayor a cero")
		}
		cantidades[t.TalleID] += t.Cantidad
	}
	talleIDs := make([]uint, 0, len(cantidades))
	for id := range cantidades {
		talleIDs = append(talleIDs, id)
	}
	sort.Slice(talleIDs, func(i, j int) bool { return talleIDs[i] < talleIDs[j] })

	var origenRows, destinoRows []model.Stock
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		n, err := s.cargarNombres(ctx, tx, destino.ProductoID, destino.LugarID, destino.EstadoID,
			[]uint{destino.LocalID}, talleIDs)
		if err != nil {
			return err
		}

		claves := make([]model.ClaveStock, 0, 2*len(talleIDs))
		for _, talleID := range talleIDs {
			claves = append(claves, origen.Clave(talleID), destino.Clave(talleID))
		}
		bloqueadas, err := bloquearClaves(ctx, tx, s.stock, claves)
		if err != nil {
			return err
		}

		for _, talleID := range talleIDs {
			cantidad := cantidades[talleID]
			nombreTalle := n.talles[talleID].Nombre

			src, found := bloqueadas[origen.Clave(talleID)].Found()
			if !found || src.Cantidad < cantidad {
				disponible := 0
				if found {
					disponible = src.Cantidad
				}
				return apierror.NewConflict("Stock insuficiente para el talle %s: disponible %d, solicitado %d",
					nombreTalle, disponible, cantidad)
			}

			ventas, err := s.stock.ConVentas(ctx, tx, src.ID)
			if err != nil {
				return err
			}
			if ventas[src.ID] {
				return apierror.NewConflict("El stock del talle %s tiene ventas asociadas y no puede transferirse", nombreTalle)
			}

			ok, err := s.stock.AjustarCantidad(ctx, tx, src.ID, -cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.NewConflict("Stock insuficiente para el talle %s", nombreTalle)
			}
			src.Cantidad -= cantidad
			origenRows = append(origenRows, *src)

			clave := destino.Clave(talleID)
			dst, err := s.acreditarDestino(ctx, tx, n, clave, bloqueadas[clave], cantidad, req.NuevoGrupo.EnPerchero, src.EnPerchero)
			if err != nil {
				return err
			}
			destinoRows = append(destinoRows, *dst)

			if err := s.movs.CreateMany(ctx, tx, []model.MovimientoStock{
				{
					StockID:       src.ID,
					Tipo:          model.MovStockTransfSalida,
					Cantidad:      -cantidad,
					StockAnterior: src.Cantidad + cantidad,
					StockNuevo:    src.Cantidad,
					Motivo:        fmt.Sprintf("transferencia a stock #%d", dst.ID),
				},
				{
					StockID:       dst.ID,
					Tipo:          model.MovStockTransfEntrada,
					Cantidad:      cantidad,
					StockAnterior: dst.Cantidad - cantidad,
					StockNuevo:    dst.Cantidad,
					Motivo:        fmt.Sprintf("transferencia desde stock #%d", src.ID),
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al transferir stock", err)
	}

	metrics.TransferenciasStock.Inc()
	log.Info().
		Uint("producto_id", origen.ProductoID).
		Uint("local_origen", origen.LocalID).
		Uint("local_destino", destino.LocalID).
		Int("talles", len(talleIDs)).
		Msg("stock transferido")
	return &dto.TransferirResponse{
		Message: "Stock transferido correctamente",
		Origen:  stocksToResponse(origenRows),
		Destino: stocksToResponse(destinoRows),
	}, nil
}

// acreditarDestino adds cantidad to the destination slot, already locked by
// the caller, creating it with a fresh SKU when absent. An existing row only
// gets a SKU if it had none.
func (s *stockService) acreditarDestino(ctx context.Context, tx *gorm.DB, n nombres, clave model.ClaveStock, lookup repository.StockLookup, cantidad int, enPerchero *bool, enPercheroOrigen bool) (*model.Stock, error) {
	if dst, found := lookup.Found(); found {
		ok, err := s.stock.AjustarCantidad(ctx, tx, dst.ID, cantidad)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("stock destino %d no actualizado", dst.ID)
		}
		dst.Cantidad += cantidad
		dirty := false
		if dst.CodigoSKU == nil {
			code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, dst.ID, nil)
			if err != nil {
				return nil, err
			}
			dst.CodigoSKU = strPtr(code)
			dirty = true
		}
		if enPerchero != nil && *enPerchero != dst.EnPerchero {
			dst.EnPerchero = *enPerchero
			dirty = true
		}
		if dirty {
			if err := s.stock.Save(ctx, tx, dst); err != nil {
				return nil, err
			}
		}
		return dst, nil
	}

	code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, 0, nil)
	if err != nil {
		return nil, err
	}
	perchero := enPercheroOrigen
	if enPerchero != nil {
		perchero = *enPerchero
	}
	dst := &model.Stock{
		ProductoID: clave.ProductoID,
		TalleID:    clave.TalleID,
		LocalID:    clave.LocalID,
		LugarID:    clave.LugarID,
		EstadoID:   clave.EstadoID,
		Cantidad:   cantidad,
		EnPerchero: perchero,
		CodigoSKU:  strPtr(code),
	}
	if err := s.stock.Create(ctx, tx, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ── Crear / Actualizar ────────────────────────────────────────────────────────

func claveDe(req dto.StockRequest) model.ClaveStock {
	return model.ClaveStock{
		ProductoID: req.ProductoID,
		TalleID:    req.TalleID,
		LocalID:    req.LocalID,
		LugarID:    req.LugarID,
		EstadoID:   req.EstadoID,
	}
}

// Crear records a manual stock entry. When the slot already exists the
// quantity is added to it instead of creating a duplicate row.
func (s *stockService) Crear(ctx context.Context, req dto.StockRequest) (*dto.StockMutacionResponse, error) {
	clave := claveDe(req)
	if !clave.Completa() {
		return nil, apierror.NewValidationf("producto_id, talle_id, local_id, lugar_id y estado_id son obligatorios")
	}
	if req.Cantidad < 0 {
		return nil, apierror.NewValidationf("La cantidad no puede ser negativa")
	}

	var (
		row       *model.Stock
		fusionado bool
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		n, err := s.cargarNombres(ctx, tx, clave.ProductoID, clave.LugarID, clave.EstadoID,
			[]uint{clave.LocalID}, []uint{clave.TalleID})
		if err != nil {
			return err
		}
		lookup, err := s.stock.Lookup(ctx, tx, clave, true)
		if err != nil {
			return err
		}

		if existing, found := lookup.Found(); found {
			fusionado = true
			anterior := existing.Cantidad
			existing.Cantidad += req.Cantidad
			if req.EnPerchero != nil {
				existing.EnPerchero = *req.EnPerchero
			}
			if existing.CodigoSKU == nil {
				code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, existing.ID, nil)
				if err != nil {
					return err
				}
				existing.CodigoSKU = strPtr(code)
			}
			if err := s.stock.Save(ctx, tx, existing); err != nil {
				return err
			}
			row = existing
			return s.auditar(ctx, tx, existing.ID, model.MovStockAjusteManual, anterior, existing.Cantidad, "alta manual fusionada")
		}

		code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, 0, nil)
		if err != nil {
			return err
		}
		row = &model.Stock{
			ProductoID: clave.ProductoID,
			TalleID:    clave.TalleID,
			LocalID:    clave.LocalID,
			LugarID:    clave.LugarID,
			EstadoID:   clave.EstadoID,
			Cantidad:   req.Cantidad,
			EnPerchero: req.EnPerchero == nil || *req.EnPerchero,
			CodigoSKU:  strPtr(code),
		}
		if err := s.stock.Create(ctx, tx, row); err != nil {
			return err
		}
		return s.auditar(ctx, tx, row.ID, model.MovStockAjusteManual, 0, row.Cantidad, "alta manual")
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al registrar stock", err)
	}

	resp := stockToResponse(row)
	msg := "Stock creado correctamente"
	if fusionado {
		msg = "Ya existia stock para esa combinacion: se sumo la cantidad"
	}
	return &dto.StockMutacionResponse{Message: msg, Stock: &resp, Fusionado: fusionado}, nil
}

// Actualizar edits a row. If the new tuple belongs to another row, both are
// merged: quantities are summed into the other row and the edited one is
// removed, or zeroed when sales reference it.
func (s *stockService) Actualizar(ctx context.Context, id uint, req dto.StockRequest) (*dto.StockMutacionResponse, error) {
	clave := claveDe(req)
	if !clave.Completa() {
		return nil, apierror.NewValidationf("producto_id, talle_id, local_id, lugar_id y estado_id son obligatorios")
	}
	if req.Cantidad < 0 {
		return nil, apierror.NewValidationf("La cantidad no puede ser negativa")
	}

	var (
		row       *model.Stock
		fusionado bool
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		cur, err := s.stock.FindByID(ctx, tx, id, true)
		if repository.IsNotFound(err) {
			return apierror.NewNotFound("Stock %d no encontrado", id)
		}
		if err != nil {
			return err
		}
		n, err := s.cargarNombres(ctx, tx, clave.ProductoID, clave.LugarID, clave.EstadoID,
			[]uint{clave.LocalID}, []uint{clave.TalleID})
		if err != nil {
			return err
		}

		lookup, err := s.stock.LookupOther(ctx, tx, clave, cur.ID)
		if err != nil {
			return err
		}

		if other, found := lookup.Found(); found {
			fusionado = true
			anterior := other.Cantidad
			other.Cantidad += req.Cantidad
			if req.EnPerchero != nil {
				other.EnPerchero = *req.EnPerchero
			}
			if other.CodigoSKU == nil {
				code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, other.ID, nil)
				if err != nil {
					return err
				}
				other.CodigoSKU = strPtr(code)
			}
			if err := s.stock.Save(ctx, tx, other); err != nil {
				return err
			}
			if err := s.auditar(ctx, tx, other.ID, model.MovStockAjusteManual, anterior, other.Cantidad,
				fmt.Sprintf("fusion con stock #%d", cur.ID)); err != nil {
				return err
			}
			if err := s.retirar(ctx, tx, cur, fmt.Sprintf("fusionado en stock #%d", other.ID)); err != nil {
				return err
			}
			row = other
			return nil
		}

		anterior := cur.Cantidad
		regenerar := cur.CodigoSKU == nil || cur.TalleID != clave.TalleID || cur.LocalID != clave.LocalID ||
			cur.ProductoID != clave.ProductoID || cur.LugarID != clave.LugarID
		cur.ProductoID, cur.TalleID, cur.LocalID, cur.LugarID, cur.EstadoID =
			clave.ProductoID, clave.TalleID, clave.LocalID, clave.LugarID, clave.EstadoID
		cur.Cantidad = req.Cantidad
		if req.EnPerchero != nil {
			cur.EnPerchero = *req.EnPerchero
		}
		if regenerar {
			code, err := s.resolverSKU(ctx, tx, n.sku(clave.TalleID, clave.LocalID), clave.LocalID, cur.ID, nil)
			if err != nil {
				return err
			}
			cur.CodigoSKU = strPtr(code)
		}
		if err := s.stock.Save(ctx, tx, cur); err != nil {
			return err
		}
		row = cur
		if anterior == cur.Cantidad {
			return nil
		}
		return s.auditar(ctx, tx, cur.ID, model.MovStockAjusteManual, anterior, cur.Cantidad, "edicion manual")
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al actualizar stock", err)
	}

	resp := stockToResponse(row)
	msg := "Stock actualizado correctamente"
	if fusionado {
		msg = "Ya existia stock para esa combinacion: se fusionaron las filas"
	}
	return &dto.StockMutacionResponse{Message: msg, Stock: &resp, Fusionado: fusionado}, nil
}

// retirar removes a row, or zeroes it when sale lines reference it.
func (s *stockService) retirar(ctx context.Context, tx *gorm.DB, row *model.Stock, motivo string) error {
	ventas, err := s.stock.ConVentas(ctx, tx, row.ID)
	if err != nil {
		return err
	}
	if !ventas[row.ID] {
		return s.stock.Delete(ctx, tx, row.ID)
	}
	return s.ponerEnCero(ctx, tx, row, motivo)
}

func (s *stockService) ponerEnCero(ctx context.Context, tx *gorm.DB, row *model.Stock, motivo string) error {
	if row.Cantidad == 0 {
		return nil
	}
	if err := s.stock.SetCantidad(ctx, tx, row.ID, 0); err != nil {
		return err
	}
	anterior := row.Cantidad
	row.Cantidad = 0
	return s.auditar(ctx, tx, row.ID, model.MovStockBaja, anterior, 0, motivo)
}

func (s *stockService) auditar(ctx context.Context, tx *gorm.DB, stockID uint, tipo string, anterior, nuevo int, motivo string) error {
	return s.movs.Create(ctx, tx, &model.MovimientoStock{
		StockID:       stockID,
		Tipo:          tipo,
		Cantidad:      nuevo - anterior,
		StockAnterior: anterior,
		StockNuevo:    nuevo,
		Motivo:        motivo,
	})
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

// Eliminar deletes a stock row whatever quantity it holds. Rows referenced by
// sales are zeroed instead and the caller is told nothing was physically
// deleted. Only EliminarGrupo refuses while units remain.
func (s *stockService) Eliminar(ctx context.Context, id uint) (*dto.EliminarStockResponse, error) {
	var (
		row       *model.Stock
		eliminado bool
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		cur, err := s.stock.FindByID(ctx, tx, id, true)
		if repository.IsNotFound(err) {
			return apierror.NewNotFound("Stock %d no encontrado", id)
		}
		if err != nil {
			return err
		}
		ventas, err := s.stock.ConVentas(ctx, tx, cur.ID)
		if err != nil {
			return err
		}
		if !ventas[cur.ID] {
			eliminado = true
			return s.stock.Delete(ctx, tx, cur.ID)
		}
		row = cur
		return s.ponerEnCero(ctx, tx, cur, "baja con ventas asociadas")
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al eliminar stock", err)
	}

	if eliminado {
		return &dto.EliminarStockResponse{Message: "Stock eliminado correctamente", Eliminado: true}, nil
	}
	resp := stockToResponse(row)
	return &dto.EliminarStockResponse{
		Message:   "El stock tiene ventas asociadas: se puso la cantidad en cero en lugar de eliminarlo",
		Eliminado: false,
		Stock:     &resp,
	}, nil
}

// EliminarGrupo removes every size of a group once it holds no units. Rows
// referenced by sales stay behind at zero.
func (s *stockService) EliminarGrupo(ctx context.Context, req dto.GrupoStockRequest) (*dto.EliminarGrupoResponse, error) {
	grupo := grupoDe(req)
	if !grupoCompleto(grupo) {
		return nil, apierror.NewValidationf("producto_id, local_id, lugar_id y estado_id son obligatorios")
	}

	var eliminados, conservados int
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		rows, err := s.stock.ListGrupo(ctx, tx, grupo, true)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apierror.NewNotFound("No existe stock para el grupo indicado")
		}

		ids := make([]uint, 0, len(rows))
		restante := 0
		for _, r := range rows {
			restante += r.Cantidad
			ids = append(ids, r.ID)
		}
		if restante > 0 {
			return apierror.NewConflict("No se puede eliminar el grupo: todavia quedan %d unidades en stock", restante)
		}

		ventas, err := s.stock.ConVentas(ctx, tx, ids...)
		if err != nil {
			return err
		}
		var borrar []uint
		for _, id := range ids {
			if ventas[id] {
				conservados++
				continue
			}
			borrar = append(borrar, id)
		}
		eliminados = len(borrar)
		return s.stock.Delete(ctx, tx, borrar...)
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al eliminar el grupo de stock", err)
	}

	msg := "Grupo de stock eliminado correctamente"
	if conservados > 0 {
		msg = fmt.Sprintf("Se eliminaron %d filas; %d quedan en cero por tener ventas asociadas", eliminados, conservados)
	}
	return &dto.EliminarGrupoResponse{Message: msg, Eliminados: eliminados, Conservados: conservados}, nil
}

// EliminarProducto deletes a product and its stock, units included. With sale
// history the product is deactivated and its stock zeroed instead.
func (s *stockService) EliminarProducto(ctx context.Context, productoID uint) (*dto.EliminarProductoResponse, error) {
	var (
		eliminado bool
		filas     int
	)
	err := s.tx.Run(ctx, func(tx *gorm.DB) error {
		if _, err := s.catalogo.FindProducto(ctx, tx, productoID); repository.IsNotFound(err) {
			return apierror.NewNotFound("Producto %d no encontrado", productoID)
		} else if err != nil {
			return err
		}
		rows, err := s.stock.ListByProducto(ctx, tx, productoID, true)
		if err != nil {
			return err
		}
		filas = len(rows)
		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		ventas, err := s.stock.ConVentas(ctx, tx, ids...)
		if err != nil {
			return err
		}

		if len(ventas) == 0 {
			eliminado = true
			if err := s.stock.Delete(ctx, tx, ids...); err != nil {
				return err
			}
			return s.catalogo.DeleteProducto(ctx, tx, productoID)
		}

		for i := range rows {
			if err := s.ponerEnCero(ctx, tx, &rows[i], "baja de producto"); err != nil {
				return err
			}
		}
		return s.catalogo.UpdateProductoEstado(ctx, tx, productoID, "inactivo")
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al eliminar el producto", err)
	}

	if eliminado {
		return &dto.EliminarProductoResponse{Message: "Producto eliminado correctamente", Eliminado: true, Filas: filas}, nil
	}
	return &dto.EliminarProductoResponse{
		Message:   "El producto tiene ventas asociadas: se desactivo y su stock quedo en cero",
		Eliminado: false,
		Filas:     filas,
	}, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *stockService) Listar(ctx context.Context, f dto.StockFilter) (*dto.Paginado[dto.StockResponse], error) {
	rows, total, err := s.stock.List(ctx, repository.StockFilter{
		ProductoID:   f.ProductoID,
		LocalID:      f.LocalID,
		LugarID:      f.LugarID,
		EstadoID:     f.EstadoID,
		SoloConStock: f.ConStock,
		Page:         f.Page,
		Limit:        f.Limit,
	})
	if err != nil {
		return nil, err
	}
	page := dto.NewPaginado(stocksToResponse(rows), total, f.Page, f.Limit)
	return &page, nil
}

const limiteBusquedaVenta = 20

func (s *stockService) BuscarParaVenta(ctx context.Context, q string, localID *uint) ([]dto.StockResponse, error) {
	if len(q) < 2 {
		return nil, apierror.NewValidationf("La busqueda requiere al menos 2 caracteres")
	}
	rows, err := s.stock.BuscarParaVenta(ctx, q, localID, limiteBusquedaVenta)
	if err != nil {
		return nil, err
	}
	return stocksToResponse(rows), nil
}

func (s *stockService) ListarMovimientos(ctx context.Context, stockID uint, page, limit int) (*dto.Paginado[dto.MovimientoStockResponse], error) {
	movs, total, err := s.movs.List(ctx, repository.MovimientoStockFilter{StockID: &stockID, Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovimientoStockResponse{
			ID:            m.ID,
			StockID:       m.StockID,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			ReferenciaID:  m.ReferenciaID,
			CreatedAt:     m.CreatedAt,
		})
	}
	p := dto.NewPaginado(out, total, page, limit)
	return &p, nil
}

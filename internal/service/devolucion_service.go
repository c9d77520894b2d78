package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/metrics"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DestinoCaja          = "caja"
	DestinoPendiente     = "pendiente"
	DestinoSinMovimiento = "sin_movimiento"
)

type DevolucionService interface {
	RegistrarDevolucion(ctx context.Context, req dto.RegistrarDevolucionRequest) (*dto.RegistrarDevolucionResponse, error)
	ObtenerDevolucion(ctx context.Context, id uint) (*dto.DevolucionResponse, error)
	ListarPorVenta(ctx context.Context, ventaID uint) ([]dto.DevolucionResponse, error)
}

type devolucionService struct {
	tx       *repository.TxRunner
	repo     repository.DevolucionRepository
	ventas   repository.VentaRepository
	stock    repository.StockRepository
	cajaRepo repository.CajaRepository
	movs     repository.MovimientoStockRepository
}

func NewDevolucionService(
	tx *repository.TxRunner,
	repo repository.DevolucionRepository,
	ventas repository.VentaRepository,
	stock repository.StockRepository,
	cajaRepo repository.CajaRepository,
	movs repository.MovimientoStockRepository,
) DevolucionService {
	return &devolucionService{tx: tx, repo: repo, ventas: ventas, stock: stock, cajaRepo: cajaRepo, movs: movs}
}

// ── RegistrarDevolucion ───────────────────────────────────────────────────────
//   1. The sale must exist, be confirmed and own every requested line
//   2. BEGIN TX: lock the open caja, the sale lines and the stock rows, in
//      that order and by ascending id
//   3. Header with total 0, then per line: check the remaining quantity,
//      write the detalle and restock
//   4. Update the header total
//   5. Egress into the local's open caja, or a pending movement if none is open
//   6. COMMIT

func (s *devolucionService) RegistrarDevolucion(ctx context.Context, req dto.RegistrarDevolucionRequest) (*dto.RegistrarDevolucionResponse, error) {
	if len(req.Detalles) == 0 {
		return nil, apierror.NewValidationf("La devolucion debe incluir al menos un detalle")
	}
	if req.UsuarioID == 0 || req.LocalID == 0 {
		return nil, apierror.NewValidationf("usuario_id y local_id son obligatorios")
	}

	venta, err := s.ventas.FindByID(ctx, req.VentaID)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Venta %d no encontrada", req.VentaID)
	}
	if err != nil {
		return nil, err
	}
	if venta.Estado == "anulada" {
		return nil, apierror.NewConflict("La venta %d esta anulada", venta.ID)
	}

	lineas := make(map[uint]model.DetalleVenta, len(venta.Detalles))
	for _, d := range venta.Detalles {
		lineas[d.ID] = d
	}
	for _, item := range req.Detalles {
		if item.Cantidad <= 0 {
			return nil, apierror.NewValidationf("La cantidad a devolver debe ser mayor a cero")
		}
		if item.Monto.IsNegative() {
			return nil, apierror.NewValidationf("El monto a devolver no puede ser negativo")
		}
		if _, ok := lineas[item.DetalleVentaID]; !ok {
			return nil, apierror.NewValidationf("El detalle %d no pertenece a la venta %d", item.DetalleVentaID, venta.ID)
		}
	}

	total := decimal.Zero
	lineaIDs := make([]uint, 0, len(req.Detalles))
	stockIDs := make([]uint, 0, len(req.Detalles))
	for _, item := range req.Detalles {
		total = total.Add(item.Monto)
		lineaIDs = append(lineaIDs, item.DetalleVentaID)
		if item.StockID != 0 {
			stockIDs = append(stockIDs, item.StockID)
		} else {
			stockIDs = append(stockIDs, lineas[item.DetalleVentaID].StockID)
		}
	}

	var (
		dev     *model.Devolucion
		destino string
		cajaID  *uint
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		// Same lock order as a sale: caja, then stock rows.
		var caja *model.Caja
		if !total.IsZero() {
			c, err := s.cajaRepo.FindAbiertaPorLocal(ctx, tx, req.LocalID, true)
			switch {
			case err == nil:
				caja = c
			case !repository.IsNotFound(err):
				return err
			}
		}
		bloqueadas, err := s.bloquearLineas(ctx, tx, lineaIDs)
		if err != nil {
			return err
		}
		stock, err := bloquearPorID(ctx, tx, s.stock, stockIDs)
		if err != nil {
			return err
		}

		now := time.Now()
		dev = &model.Devolucion{
			VentaID:   venta.ID,
			UsuarioID: req.UsuarioID,
			LocalID:   req.LocalID,
			Motivo:    req.Motivo,
			Total:     decimal.Zero,
			Fecha:     now,
		}
		if err := s.repo.Create(ctx, tx, dev); err != nil {
			return err
		}

		// Units requested earlier in this same request, per sale line.
		enCurso := make(map[uint]int)
		for i, item := range req.Detalles {
			linea := bloqueadas[item.DetalleVentaID]
			devuelta, err := s.repo.CantidadDevuelta(ctx, tx, linea.ID)
			if err != nil {
				return err
			}
			restante := linea.Cantidad - devuelta - enCurso[linea.ID]
			if item.Cantidad > restante {
				return apierror.NewConflict("La cantidad a devolver (%d) supera lo disponible (%d) para el detalle %d",
					item.Cantidad, restante, linea.ID)
			}
			enCurso[linea.ID] += item.Cantidad

			stockID := stockIDs[i]
			st := stock[stockID]

			detalle := &model.DetalleDevolucion{
				DevolucionID:   dev.ID,
				DetalleVentaID: linea.ID,
				StockID:        stockID,
				Cantidad:       item.Cantidad,
				Monto:          item.Monto,
				PrecioUnitario: item.Monto.DivRound(decimal.NewFromInt(int64(item.Cantidad)), 2),
			}
			if err := s.repo.CreateDetalle(ctx, tx, detalle); err != nil {
				return err
			}
			ok, err := s.stock.AjustarCantidad(ctx, tx, stockID, item.Cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("stock %d no actualizado al reponer la devolucion", stockID)
			}
			ref := dev.ID
			if err := s.movs.Create(ctx, tx, &model.MovimientoStock{
				StockID:       stockID,
				Tipo:          model.MovStockDevolucion,
				Cantidad:      item.Cantidad,
				StockAnterior: st.Cantidad,
				StockNuevo:    st.Cantidad + item.Cantidad,
				Motivo:        fmt.Sprintf("devolucion #%d de venta #%d", dev.ID, venta.ID),
				ReferenciaID:  &ref,
			}); err != nil {
				return err
			}
			st.Cantidad += item.Cantidad

			dev.Detalles = append(dev.Detalles, *detalle)
		}

		dev.Total = total
		if err := s.repo.UpdateTotal(ctx, tx, dev.ID, total); err != nil {
			return err
		}

		if total.IsZero() {
			destino = DestinoSinMovimiento
			return nil
		}

		descripcion := fmt.Sprintf("Devolución de venta #%d", venta.ID)
		referencia := fmt.Sprintf("DEV-%d", dev.ID)

		if caja != nil {
			destino = DestinoCaja
			cajaID = &caja.ID
			return s.cajaRepo.CreateMovimiento(ctx, tx, &model.MovimientoCaja{
				CajaID:      caja.ID,
				Tipo:        model.MovEgreso,
				Origen:      model.OrigenDevolucion,
				Descripcion: descripcion,
				Monto:       total,
				Fecha:       now,
				Referencia:  &referencia,
			})
		}
		destino = DestinoPendiente
		return s.cajaRepo.CreatePendiente(ctx, tx, &model.MovimientoCajaPendiente{
			LocalID:     req.LocalID,
			Tipo:        model.MovEgreso,
			Origen:      model.OrigenDevolucion,
			Descripcion: descripcion,
			Monto:       total,
			Fecha:       now,
			Referencia:  &referencia,
		})
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al registrar la devolucion", err)
	}

	metrics.DevolucionesRegistradas.Inc()
	log.Info().
		Uint("devolucion_id", dev.ID).
		Uint("venta_id", venta.ID).
		Str("total", dev.Total.String()).
		Str("destino", destino).
		Msg("devolucion registrada")

	return &dto.RegistrarDevolucionResponse{
		Message:    "Devolución registrada correctamente",
		Devolucion: devolucionToResponse(dev),
		Destino:    destino,
		CajaID:     cajaID,
	}, nil
}

func (s *devolucionService) ObtenerDevolucion(ctx context.Context, id uint) (*dto.DevolucionResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Devolucion %d no encontrada", id)
	}
	if err != nil {
		return nil, err
	}
	resp := devolucionToResponse(d)
	return &resp, nil
}

func (s *devolucionService) ListarPorVenta(ctx context.Context, ventaID uint) ([]dto.DevolucionResponse, error) {
	ds, err := s.repo.ListByVenta(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DevolucionResponse, 0, len(ds))
	for i := range ds {
		out = append(out, devolucionToResponse(&ds[i]))
	}
	return out, nil
}

// bloquearLineas locks each distinct sale line once, lowest id first.
func (s *devolucionService) bloquearLineas(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]*model.DetalleVenta, error) {
	orden := append([]uint(nil), ids...)
	sort.Slice(orden, func(i, j int) bool { return orden[i] < orden[j] })

	out := make(map[uint]*model.DetalleVenta, len(orden))
	for _, id := range orden {
		if _, ok := out[id]; ok {
			continue
		}
		linea, err := s.ventas.FindDetalle(ctx, tx, id, true)
		if err != nil {
			return nil, err
		}
		out[id] = linea
	}
	return out, nil
}

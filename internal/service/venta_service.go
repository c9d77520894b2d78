package service

import (
	"context"
	"fmt"
	"strconv"
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

type VentaService interface {
	RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.RegistrarVentaResponse, error)
	ObtenerVenta(ctx context.Context, id uint) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.Paginado[dto.VentaResponse], error)
	CalcularTotal(ctx context.Context, req dto.CalcularTotalRequest) (*dto.CalcularTotalResponse, error)
}

type ventaService struct {
	tx         *repository.TxRunner
	repo       repository.VentaRepository
	stock      repository.StockRepository
	cajaRepo   repository.CajaRepository
	mediosPago repository.MedioPagoRepository
	catalogo   repository.CatalogoRepository
	movs       repository.MovimientoStockRepository
}

func NewVentaService(
	tx *repository.TxRunner,
	repo repository.VentaRepository,
	stock repository.StockRepository,
	cajaRepo repository.CajaRepository,
	mediosPago repository.MedioPagoRepository,
	catalogo repository.CatalogoRepository,
	movs repository.MovimientoStockRepository,
) VentaService {
	return &ventaService{
		tx:         tx,
		repo:       repo,
		stock:      stock,
		cajaRepo:   cajaRepo,
		mediosPago: mediosPago,
		catalogo:   catalogo,
		movs:       movs,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
//   1. Validate the request and that (local, usuario) has an open caja
//   2. Stock pass: every line must be covered before anything is written
//   3. Apply the medio de pago adjustment to the total
//   4. BEGIN TX: lock the caja, then the stock rows by ascending id;
//      venta + detalles + medio de pago, descontar stock,
//      ingreso en caja, fecha de ultima compra del cliente
//   5. COMMIT; the first failure rolls everything back

func (s *ventaService) RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.RegistrarVentaResponse, error) {
	// 1. Preconditions
	if len(req.Productos) == 0 {
		return nil, apierror.NewValidationf("El carrito esta vacio")
	}
	if req.UsuarioID == 0 || req.LocalID == 0 {
		return nil, apierror.NewValidationf("usuario_id y local_id son obligatorios")
	}
	if req.MedioPagoID == 0 {
		return nil, apierror.NewValidationf("Debe seleccionar un medio de pago")
	}
	if !req.Total.IsPositive() {
		return nil, apierror.NewValidationf("El total debe ser mayor a cero")
	}

	caja, err := s.cajaRepo.FindAbiertaPorLocalUsuario(ctx, nil, req.LocalID, req.UsuarioID)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("No hay una caja abierta para el local %d y el usuario %d", req.LocalID, req.UsuarioID)
	}
	if err != nil {
		return nil, err
	}

	medio, err := s.mediosPago.FindByID(ctx, nil, req.MedioPagoID)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Medio de pago %d no encontrado", req.MedioPagoID)
	}
	if err != nil {
		return nil, err
	}
	if !medio.Activo {
		return nil, apierror.NewValidationf("El medio de pago %s no esta activo", medio.Nombre)
	}

	if req.ClienteID != nil {
		if _, err := s.catalogo.FindCliente(ctx, nil, *req.ClienteID); repository.IsNotFound(err) {
			return nil, apierror.NewNotFound("Cliente %d no encontrado", *req.ClienteID)
		} else if err != nil {
			return nil, err
		}
	}

	// 2. Stock pass, aggregated per row so repeated lines are checked together
	detalles := make([]model.DetalleVenta, 0, len(req.Productos))
	pedido := make(map[uint]int)
	for _, item := range req.Productos {
		if item.StockID == 0 || item.Cantidad <= 0 {
			return nil, apierror.NewValidationf("Cada producto requiere stock_id y cantidad mayor a cero")
		}
		if item.PrecioUnitario.IsNegative() || item.Descuento.IsNegative() {
			return nil, apierror.NewValidationf("Precio y descuento no pueden ser negativos")
		}
		bruto := item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		if item.Descuento.GreaterThan(bruto) {
			return nil, apierror.NewValidationf("El descuento del stock %d supera su subtotal", item.StockID)
		}
		pedido[item.StockID] += item.Cantidad
		detalles = append(detalles, model.DetalleVenta{
			StockID:        item.StockID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Descuento:      item.Descuento,
			Subtotal:       bruto.Sub(item.Descuento),
		})
	}
	for stockID, cantidad := range pedido {
		st, err := s.stock.FindByID(ctx, nil, stockID, false)
		if repository.IsNotFound(err) {
			return nil, apierror.NewNotFound("Stock %d no encontrado", stockID)
		}
		if err != nil {
			return nil, err
		}
		if st.Cantidad < cantidad {
			return nil, apierror.NewConflict("Stock insuficiente para el stock %d: disponible %d, solicitado %d",
				stockID, st.Cantidad, cantidad)
		}
	}

	// 3. Medio de pago adjustment
	cuotas := req.Cuotas
	if cuotas < 1 {
		cuotas = 1
	}
	recargoCuotas, err := s.recargoCuotas(ctx, nil, medio.ID, cuotas)
	if err != nil {
		return nil, err
	}
	final := CalcularTotalFinal(req.Total, medio.AjustePorcentual, recargoCuotas, cuotas)
	descuentoPct, recargoPct := final.Porcentajes()

	// 4. ACID transaction
	var (
		venta      *model.Venta
		movimiento *model.MovimientoCaja
	)
	err = s.tx.Run(ctx, func(tx *gorm.DB) error {
		// The caja may have been closed since the pre-flight check.
		abierta, err := s.cajaRepo.FindByID(ctx, tx, caja.ID, true)
		if err != nil {
			return err
		}
		if !abierta.Abierta() {
			return apierror.NewNotFound("La caja %d fue cerrada", caja.ID)
		}

		ids := make([]uint, 0, len(detalles))
		for _, d := range detalles {
			ids = append(ids, d.StockID)
		}
		bloqueadas, err := bloquearPorID(ctx, tx, s.stock, ids)
		if err != nil {
			return err
		}

		now := time.Now()
		venta = &model.Venta{
			Fecha:               now,
			ClienteID:           req.ClienteID,
			UsuarioID:           req.UsuarioID,
			LocalID:             req.LocalID,
			CajaID:              caja.ID,
			Total:               final.Total,
			DescuentoPorcentaje: descuentoPct,
			RecargoPorcentaje:   recargoPct,
			Cuotas:              cuotas,
			Estado:              "confirmada",
			Detalles:            detalles,
			MediosPago:          []model.VentaMedioPago{{MedioPagoID: medio.ID, Monto: final.Total}},
		}
		if err := s.repo.Create(ctx, tx, venta); err != nil {
			return err
		}

		for _, d := range venta.Detalles {
			st := bloqueadas[d.StockID]
			ok, err := s.stock.AjustarCantidad(ctx, tx, d.StockID, -d.Cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.NewConflict("Stock insuficiente para el stock %d: disponible %d, solicitado %d",
					d.StockID, st.Cantidad, d.Cantidad)
			}
			ref := venta.ID
			if err := s.movs.Create(ctx, tx, &model.MovimientoStock{
				StockID:       d.StockID,
				Tipo:          model.MovStockVenta,
				Cantidad:      -d.Cantidad,
				StockAnterior: st.Cantidad,
				StockNuevo:    st.Cantidad - d.Cantidad,
				Motivo:        fmt.Sprintf("venta #%d", venta.ID),
				ReferenciaID:  &ref,
			}); err != nil {
				return err
			}
			st.Cantidad -= d.Cantidad
		}

		movimiento = &model.MovimientoCaja{
			CajaID:      caja.ID,
			Tipo:        model.MovIngreso,
			Origen:      model.OrigenVenta,
			Descripcion: fmt.Sprintf("Venta #%d", venta.ID),
			Monto:       venta.Total,
			Fecha:       now,
			Referencia:  strPtr(strconv.FormatUint(uint64(venta.ID), 10)),
		}
		if err := s.cajaRepo.CreateMovimiento(ctx, tx, movimiento); err != nil {
			return err
		}

		if req.ClienteID != nil {
			if err := s.catalogo.TouchUltimaCompra(ctx, tx, *req.ClienteID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apierror.NewTxFailure("Error al registrar la venta", err)
	}

	metrics.VentasRegistradas.Inc()
	log.Info().
		Uint("venta_id", venta.ID).
		Uint("caja_id", caja.ID).
		Str("total", venta.Total.String()).
		Msg("venta registrada")

	return &dto.RegistrarVentaResponse{
		Message:          "Venta registrada correctamente",
		Venta:            ventaToResponse(venta),
		MovimientoCajaID: movimiento.ID,
	}, nil
}

// recargoCuotas returns the installment surcharge. A single payment never
// carries one, and a count with no configured row is charged nothing extra.
func (s *ventaService) recargoCuotas(ctx context.Context, tx *gorm.DB, medioPagoID uint, cuotas int) (decimal.Decimal, error) {
	if cuotas <= 1 {
		return decimal.Zero, nil
	}
	c, err := s.mediosPago.FindCuota(ctx, tx, medioPagoID, cuotas)
	if repository.IsNotFound(err) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return c.PorcentajeRecargo, nil
}

// ── CalcularTotal ─────────────────────────────────────────────────────────────

func (s *ventaService) CalcularTotal(ctx context.Context, req dto.CalcularTotalRequest) (*dto.CalcularTotalResponse, error) {
	if !req.PrecioBase.IsPositive() {
		return nil, apierror.NewValidationf("precio_base debe ser mayor a cero")
	}
	medio, err := s.mediosPago.FindByID(ctx, nil, req.MedioPagoID)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Medio de pago %d no encontrado", req.MedioPagoID)
	}
	if err != nil {
		return nil, err
	}
	cuotas := req.Cuotas
	if cuotas < 1 {
		cuotas = 1
	}
	recargo, err := s.recargoCuotas(ctx, nil, medio.ID, cuotas)
	if err != nil {
		return nil, err
	}
	f := CalcularTotalFinal(req.PrecioBase, medio.AjustePorcentual, recargo, cuotas)
	return &dto.CalcularTotalResponse{
		PrecioBase:         f.Base,
		AjustePorcentual:   f.Ajuste,
		RecargoCuotas:      f.RecargoCuotas,
		Total:              f.Total,
		Cuotas:             f.Cuotas,
		MontoPorCuota:      f.MontoPorCuota,
		DiferenciaRedondeo: f.DiferenciaRedondeo,
	}, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, id uint) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NewNotFound("Venta %d no encontrada", id)
	}
	if err != nil {
		return nil, err
	}
	resp := ventaToResponse(v)
	return &resp, nil
}

func (s *ventaService) ListarVentas(ctx context.Context, f dto.VentaFilter) (*dto.Paginado[dto.VentaResponse], error) {
	ventas, total, err := s.repo.List(ctx, repository.VentaFilter{
		LocalID: f.LocalID,
		CajaID:  f.CajaID,
		Estado:  f.Estado,
		Page:    f.Page,
		Limit:   f.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		out = append(out, ventaToResponse(&ventas[i]))
	}
	p := dto.NewPaginado(out, total, f.Page, f.Limit)
	return &p, nil
}

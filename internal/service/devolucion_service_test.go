package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"gorm.io/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ventaDeDos sells 2 units at 1000 from a slot holding 5 and returns the
// stock row, the open caja and the sale.
func ventaDeDos(t *testing.T, env *testEnv) (dto.StockResponse, dto.CajaResponse, *dto.RegistrarVentaResponse) {
	t.Helper()
	rows := env.distribuir(t, map[uint]int{env.talleS.ID: 5})
	caja := env.abrirCaja(t, env.centro, 1, "0")
	venta := env.vender(t, env.centro, 1, rows[0].ID, 2, "1000")
	return rows[0], caja, venta
}

func devolver(env *testEnv, venta *dto.RegistrarVentaResponse, cantidad int, monto string) dto.RegistrarDevolucionRequest {
	return dto.RegistrarDevolucionRequest{
		VentaID:   venta.Venta.ID,
		UsuarioID: 1,
		LocalID:   env.centro.ID,
		Detalles: []dto.DetalleDevolucionRequest{{
			DetalleVentaID: venta.Venta.Detalles[0].ID,
			Cantidad:       cantidad,
			Monto:          dec(monto),
		}},
	}
}

func TestRegistrarDevolucion_ReponeStockYEgresaDeCaja(t *testing.T) {
	env := newTestEnv(t)
	stock, caja, venta := ventaDeDos(t, env)
	require.Equal(t, 3, env.stockRow(t, stock.ID).Cantidad)

	resp, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	require.NoError(t, err)

	assert.Equal(t, DestinoCaja, resp.Destino)
	require.NotNil(t, resp.CajaID)
	assert.Equal(t, caja.ID, *resp.CajaID)
	assertDec(t, "1000", resp.Devolucion.Total)
	require.Len(t, resp.Devolucion.Detalles, 1)
	assertDec(t, "1000", resp.Devolucion.Detalles[0].PrecioUnitario)
	assert.Equal(t, 4, env.stockRow(t, stock.ID).Cantidad)

	movs := env.movimientosCaja(t, caja.ID)
	require.Len(t, movs, 2)
	egreso := movs[1]
	assert.Equal(t, model.MovEgreso, egreso.Tipo)
	assert.Equal(t, model.OrigenDevolucion, egreso.Origen)
	assertDec(t, "1000", egreso.Monto)
	assert.Equal(t, fmt.Sprintf("Devolución de venta #%d", venta.Venta.ID), egreso.Descripcion)
	require.NotNil(t, egreso.Referencia)
	assert.Equal(t, fmt.Sprintf("DEV-%d", resp.Devolucion.ID), *egreso.Referencia)

	assert.EqualValues(t, 1, env.count(t, &model.MovimientoStock{}, "tipo = ?", model.MovStockDevolucion))
}

func TestRegistrarDevolucion_SuperaLoPendiente(t *testing.T) {
	env := newTestEnv(t)
	stock, caja, venta := ventaDeDos(t, env)

	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	require.NoError(t, err)

	// Only 1 unit of the line is left to return.
	_, err = env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 2, "2000"))
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	assert.Equal(t, 4, env.stockRow(t, stock.ID).Cantidad)
	assert.EqualValues(t, 1, env.count(t, &model.Devolucion{}, ""), "the rejected header is rolled back")
	assert.Len(t, env.movimientosCaja(t, caja.ID), 2)
}

func TestRegistrarDevolucion_NuncaSuperaLaCantidadVendida(t *testing.T) {
	env := newTestEnv(t)
	stock, _, venta := ventaDeDos(t, env)

	for i := 0; i < 2; i++ {
		_, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
		require.NoError(t, err)
	}
	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	var devuelto int64
	require.NoError(t, env.db.Model(&model.DetalleDevolucion{}).
		Where("detalle_venta_id = ?", venta.Venta.Detalles[0].ID).
		Select("COALESCE(SUM(cantidad), 0)").Scan(&devuelto).Error)
	assert.EqualValues(t, 2, devuelto)
	assert.Equal(t, 5, env.stockRow(t, stock.ID).Cantidad)
}

func TestRegistrarDevolucion_LineaRepetidaEnLaMismaSolicitud(t *testing.T) {
	env := newTestEnv(t)
	stock, _, venta := ventaDeDos(t, env)

	req := devolver(env, venta, 1, "1000")
	req.Detalles = append(req.Detalles, dto.DetalleDevolucionRequest{
		DetalleVentaID: venta.Venta.Detalles[0].ID,
		Cantidad:       2,
		Monto:          dec("2000"),
	})
	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), req)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
	assert.Equal(t, 3, env.stockRow(t, stock.ID).Cantidad)
	assert.EqualValues(t, 0, env.count(t, &model.DetalleDevolucion{}, ""))
}

func TestRegistrarDevolucion_SinCajaQuedaPendiente(t *testing.T) {
	env := newTestEnv(t)
	_, caja, venta := ventaDeDos(t, env)
	_, err := env.caja.Cerrar(context.Background(), caja.ID)
	require.NoError(t, err)

	resp, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	require.NoError(t, err)
	assert.Equal(t, DestinoPendiente, resp.Destino)
	assert.Nil(t, resp.CajaID)

	pendientes, err := env.caja.ListarPendientes(context.Background(), env.centro.ID)
	require.NoError(t, err)
	require.Len(t, pendientes, 1)
	assert.Equal(t, model.MovEgreso, pendientes[0].Tipo)
	assertDec(t, "1000", pendientes[0].Monto)
	assert.Len(t, env.movimientosCaja(t, caja.ID), 1, "the closed caja is untouched")
}

func TestRegistrarDevolucion_MontoCeroSinMovimiento(t *testing.T) {
	env := newTestEnv(t)
	stock, caja, venta := ventaDeDos(t, env)

	resp, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "0"))
	require.NoError(t, err)
	assert.Equal(t, DestinoSinMovimiento, resp.Destino)
	assert.Equal(t, 4, env.stockRow(t, stock.ID).Cantidad)
	assert.Len(t, env.movimientosCaja(t, caja.ID), 1)
	assert.EqualValues(t, 0, env.count(t, &model.MovimientoCajaPendiente{}, ""))
}

func TestRegistrarDevolucion_MontoCeroSinCajaNoDejaPendiente(t *testing.T) {
	env := newTestEnv(t)
	stock, caja, venta := ventaDeDos(t, env)
	_, err := env.caja.Cerrar(context.Background(), caja.ID)
	require.NoError(t, err)

	resp, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "0"))
	require.NoError(t, err)
	assert.Equal(t, DestinoSinMovimiento, resp.Destino)
	assert.Nil(t, resp.CajaID)
	assert.Equal(t, 4, env.stockRow(t, stock.ID).Cantidad)
	assert.EqualValues(t, 0, env.count(t, &model.MovimientoCajaPendiente{}, ""))
	assert.Len(t, env.movimientosCaja(t, caja.ID), 1)
}

// stockSinReponer reports every restock as matching no row.
type stockSinReponer struct {
	repository.StockRepository
}

func (f stockSinReponer) AjustarCantidad(ctx context.Context, tx *gorm.DB, id uint, delta int) (bool, error) {
	if delta > 0 {
		return false, nil
	}
	return f.StockRepository.AjustarCantidad(ctx, tx, id, delta)
}

func TestRegistrarDevolucion_ReposicionSinFilaAfectadaRevierte(t *testing.T) {
	env := newTestEnv(t)
	stock, caja, venta := ventaDeDos(t, env)

	svc := NewDevolucionService(
		repository.NewTxRunner(env.db, sql.LevelDefault),
		repository.NewDevolucionRepository(env.db),
		repository.NewVentaRepository(env.db),
		stockSinReponer{repository.NewStockRepository(env.db)},
		repository.NewCajaRepository(env.db),
		repository.NewMovimientoStockRepository(env.db),
	)
	_, err := svc.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindTxFailure))

	assert.Equal(t, 3, env.stockRow(t, stock.ID).Cantidad)
	assert.EqualValues(t, 0, env.count(t, &model.Devolucion{}, ""))
	assert.EqualValues(t, 0, env.count(t, &model.DetalleDevolucion{}, ""))
	assert.Len(t, env.movimientosCaja(t, caja.ID), 1)
}

func TestRegistrarDevolucion_AOtraFilaDeStock(t *testing.T) {
	env := newTestEnv(t)
	stock, _, venta := ventaDeDos(t, env)
	otra, err := env.stock.Crear(context.Background(), dto.StockRequest{
		ProductoID: env.producto.ID, TalleID: env.talleS.ID, LocalID: env.centro.ID,
		LugarID: env.deposito.ID, EstadoID: env.fallado.ID, Cantidad: 0,
	})
	require.NoError(t, err)

	req := devolver(env, venta, 1, "500")
	req.Detalles[0].StockID = otra.Stock.ID
	_, err = env.devoluciones.RegistrarDevolucion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 3, env.stockRow(t, stock.ID).Cantidad)
	assert.Equal(t, 1, env.stockRow(t, otra.Stock.ID).Cantidad)
}

func TestRegistrarDevolucion_DetalleDeOtraVenta(t *testing.T) {
	env := newTestEnv(t)
	_, _, venta := ventaDeDos(t, env)

	req := devolver(env, venta, 1, "1000")
	req.Detalles[0].DetalleVentaID = 999
	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), req)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestRegistrarDevolucion_VentaAnulada(t *testing.T) {
	env := newTestEnv(t)
	_, _, venta := ventaDeDos(t, env)
	require.NoError(t, env.db.Model(&model.Venta{}).Where("id = ?", venta.Venta.ID).Update("estado", "anulada").Error)

	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}

func TestRegistrarDevolucion_VentaInexistente(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.devoluciones.RegistrarDevolucion(context.Background(), dto.RegistrarDevolucionRequest{
		VentaID:   999,
		UsuarioID: 1,
		LocalID:   env.centro.ID,
		Detalles:  []dto.DetalleDevolucionRequest{{DetalleVentaID: 1, Cantidad: 1}},
	})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestObtenerYListarDevoluciones(t *testing.T) {
	env := newTestEnv(t)
	_, _, venta := ventaDeDos(t, env)
	resp, err := env.devoluciones.RegistrarDevolucion(context.Background(), devolver(env, venta, 1, "1000"))
	require.NoError(t, err)

	got, err := env.devoluciones.ObtenerDevolucion(context.Background(), resp.Devolucion.ID)
	require.NoError(t, err)
	assert.Equal(t, venta.Venta.ID, got.VentaID)
	assert.Len(t, got.Detalles, 1)

	list, err := env.devoluciones.ListarPorVenta(context.Background(), venta.Venta.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.devoluciones.ObtenerDevolucion(context.Background(), 999)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

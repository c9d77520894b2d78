package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ── Fixture ──────────────────────────────────────────────────────────────────

// testEnv is an in-memory store with every service wired the way the router
// does it, plus a small catalog:
//
//	producto "Remera Lisa", talles S/M/L, locales Centro/Norte,
//	lugares Deposito/Vidriera, estados Nuevo/Fallado,
//	medios Efectivo (-10%), Credito (0%, 3 cuotas +15%), Baja (inactivo).
type testEnv struct {
	db       *gorm.DB
	notifier *fakeNotifier

	stock        StockService
	ventas       VentaService
	devoluciones DevolucionService
	caja         CajaService

	producto model.Producto
	talleS   model.Talle
	talleM   model.Talle
	talleL   model.Talle
	centro   model.Local
	norte    model.Local
	deposito model.Lugar
	vidriera model.Lugar
	nuevo    model.Estado
	fallado  model.Estado

	efectivo model.MedioPago
	credito  model.MedioPago
	baja     model.MedioPago
	cliente  model.Cliente
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection: every pooled ":memory:" connection is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))

	env := &testEnv{db: db, notifier: &fakeNotifier{}}

	txRunner := repository.NewTxRunner(db, sql.LevelDefault)
	stockRepo := repository.NewStockRepository(db)
	catalogoRepo := repository.NewCatalogoRepository(db)
	movStockRepo := repository.NewMovimientoStockRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	env.stock = NewStockService(txRunner, stockRepo, catalogoRepo, movStockRepo)
	env.ventas = NewVentaService(txRunner, ventaRepo, stockRepo, cajaRepo,
		repository.NewMedioPagoRepository(db), catalogoRepo, movStockRepo)
	env.devoluciones = NewDevolucionService(txRunner, repository.NewDevolucionRepository(db),
		ventaRepo, stockRepo, cajaRepo, movStockRepo)
	env.caja = NewCajaService(txRunner, cajaRepo, nil, env.notifier)

	env.seed(t)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()

	e.producto = model.Producto{Nombre: "Remera Lisa", Precio: dec("1000"), Estado: "activo"}
	e.talleS = model.Talle{Nombre: "S"}
	e.talleM = model.Talle{Nombre: "M"}
	e.talleL = model.Talle{Nombre: "L"}
	e.centro = model.Local{Nombre: "Centro"}
	e.norte = model.Local{Nombre: "Norte"}
	e.deposito = model.Lugar{Nombre: "Deposito"}
	e.vidriera = model.Lugar{Nombre: "Vidriera"}
	e.nuevo = model.Estado{Nombre: "Nuevo"}
	e.fallado = model.Estado{Nombre: "Fallado"}
	e.efectivo = model.MedioPago{Nombre: "Efectivo", AjustePorcentual: dec("-10"), Activo: true}
	e.credito = model.MedioPago{Nombre: "Credito", AjustePorcentual: decimal.Zero, Activo: true}
	e.baja = model.MedioPago{Nombre: "Cheque", AjustePorcentual: decimal.Zero, Activo: false}
	e.cliente = model.Cliente{Nombre: "Ana"}

	for _, row := range []any{
		&e.producto, &e.talleS, &e.talleM, &e.talleL, &e.centro, &e.norte,
		&e.deposito, &e.vidriera, &e.nuevo, &e.fallado,
		&e.efectivo, &e.credito, &e.baja, &e.cliente,
	} {
		require.NoError(t, e.db.Create(row).Error)
	}
	require.NoError(t, e.db.Create(&model.MedioPagoCuota{
		MedioPagoID: e.credito.ID, Cuotas: 3, PorcentajeRecargo: dec("15"),
	}).Error)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertDec compares by value so "900" and "900.00" are equal.
func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func (e *testEnv) grupo(local model.Local, lugar model.Lugar) dto.GrupoStockRequest {
	return dto.GrupoStockRequest{
		ProductoID: e.producto.ID,
		LocalID:    local.ID,
		LugarID:    lugar.ID,
		EstadoID:   e.nuevo.ID,
	}
}

// distribuir sets talle→cantidad in (centro, deposito, nuevo).
func (e *testEnv) distribuir(t *testing.T, cantidades map[uint]int) []dto.StockResponse {
	t.Helper()
	var talles []dto.TalleCantidad
	for _, id := range []uint{e.talleS.ID, e.talleM.ID, e.talleL.ID} {
		if n, ok := cantidades[id]; ok {
			talles = append(talles, dto.TalleCantidad{TalleID: id, Cantidad: n})
		}
	}
	resp, err := e.stock.Distribuir(context.Background(), dto.DistribuirRequest{
		ProductoID: e.producto.ID,
		LocalID:    e.centro.ID,
		LugarID:    e.deposito.ID,
		EstadoID:   e.nuevo.ID,
		Talles:     talles,
	})
	require.NoError(t, err)
	return resp.Stock
}

func (e *testEnv) stockRow(t *testing.T, id uint) model.Stock {
	t.Helper()
	var s model.Stock
	require.NoError(t, e.db.First(&s, id).Error)
	return s
}

func (e *testEnv) stockEn(t *testing.T, local model.Local, lugar model.Lugar, talle model.Talle) (model.Stock, bool) {
	t.Helper()
	var rows []model.Stock
	require.NoError(t, e.db.Where(
		"producto_id = ? AND talle_id = ? AND local_id = ? AND lugar_id = ? AND estado_id = ?",
		e.producto.ID, talle.ID, local.ID, lugar.ID, e.nuevo.ID,
	).Find(&rows).Error)
	if len(rows) == 0 {
		return model.Stock{}, false
	}
	return rows[0], true
}

func (e *testEnv) abrirCaja(t *testing.T, local model.Local, usuarioID uint, saldoInicial string) dto.CajaResponse {
	t.Helper()
	resp, err := e.caja.Abrir(context.Background(), dto.AbrirCajaRequest{
		LocalID:      local.ID,
		UsuarioID:    usuarioID,
		SaldoInicial: dec(saldoInicial),
	})
	require.NoError(t, err)
	return resp.Caja
}

func (e *testEnv) vender(t *testing.T, local model.Local, usuarioID, stockID uint, cantidad int, precio string) *dto.RegistrarVentaResponse {
	t.Helper()
	p := dec(precio)
	resp, err := e.ventas.RegistrarVenta(context.Background(), dto.RegistrarVentaRequest{
		Productos:   []dto.ItemVentaRequest{{StockID: stockID, Cantidad: cantidad, PrecioUnitario: p}},
		Total:       p.Mul(decimal.NewFromInt(int64(cantidad))),
		MedioPagoID: e.credito.ID,
		UsuarioID:   usuarioID,
		LocalID:     local.ID,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) movimientosCaja(t *testing.T, cajaID uint) []model.MovimientoCaja {
	t.Helper()
	var movs []model.MovimientoCaja
	require.NoError(t, e.db.Where("caja_id = ?", cajaID).Order("id").Find(&movs).Error)
	return movs
}

func (e *testEnv) count(t *testing.T, m any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(m)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// ── Fakes ────────────────────────────────────────────────────────────────────

type fakeNotifier struct {
	mu   sync.Mutex
	sent []dto.RecaudacionResponse
}

func (f *fakeNotifier) NotificarRecaudacion(rec dto.RecaudacionResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, rec)
}

type fakeLocker struct {
	err      error
	obtained []string
	released int
}

func (f *fakeLocker) Obtain(_ context.Context, key string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.obtained = append(f.obtained, key)
	return func() { f.released++ }, nil
}

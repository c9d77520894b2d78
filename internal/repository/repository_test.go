package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tiendapos/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens gorm over sqlmock with the postgres dialect so the exact
// SQL (locking clauses included) can be asserted.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var stockCols = []string{"id", "producto_id", "talle_id", "local_id", "lugar_id", "estado_id", "cantidad", "en_perchero", "codigo_sku"}

func TestStockFindByID_ForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "stock" WHERE "stock"\."id" = \$1 .*FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows(stockCols).AddRow(7, 1, 1, 1, 1, 1, 5, true, "remera-S-centro-deposito"))

	s, err := repo.FindByID(context.Background(), nil, 7, true)
	require.NoError(t, err)
	assert.Equal(t, uint(7), s.ID)
	assert.Equal(t, 5, s.Cantidad)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockFindByID_SinLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "stock" WHERE "stock"\."id" = \$1 ORDER BY "stock"\."id" LIMIT (\$2|1)$`).
		WillReturnRows(sqlmock.NewRows(stockCols))

	_, err := repo.FindByID(context.Background(), nil, 7, false)
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockAjustarCantidad_GuardaContraNegativos(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)

	mock.ExpectExec(`UPDATE "stock" SET .* WHERE id = \$\d+ AND cantidad \+ \$\d+ >= 0`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := repo.AjustarCantidad(context.Background(), nil, 7, -10)
	require.NoError(t, err)
	assert.False(t, ok, "no row matched the guard")

	mock.ExpectExec(`UPDATE "stock" SET .* WHERE id = \$\d+ AND cantidad \+ \$\d+ >= 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err = repo.AjustarCantidad(context.Background(), nil, 7, -2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLookup_ForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "stock" WHERE producto_id = \$1 AND talle_id = \$2 AND local_id = \$3 AND lugar_id = \$4 AND estado_id = \$5 LIMIT .*FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows(stockCols))

	lookup, err := repo.Lookup(context.Background(), nil, model.ClaveStock{ProductoID: 1, TalleID: 2, LocalID: 3, LugarID: 4, EstadoID: 5}, true)
	require.NoError(t, err)
	_, found := lookup.Found()
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCajaFindAbiertaPorLocal_ForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCajaRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "caja" WHERE local_id = \$1 AND fecha_cierre IS NULL ORDER BY fecha_apertura DESC, id DESC(,"caja"\."id")? LIMIT .*FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "local_id", "usuario_id", "saldo_inicial", "fecha_apertura"}).
			AddRow(3, 1, 9, "100.00", time.Now()))

	c, err := repo.FindAbiertaPorLocal(context.Background(), nil, 1, true)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.ID)
	assert.True(t, c.Abierta())
	assert.Equal(t, "100", c.SaldoInicial.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDevolucionCantidadDevuelta(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDevolucionRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(cantidad\), 0\) FROM "detalle_devolucion" WHERE detalle_venta_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	n, err := repo.CantidadDevuelta(context.Background(), nil, 11)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	runner := NewTxRunner(db, sql.LevelReadCommitted)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := runner.Run(context.Background(), func(tx *gorm.DB) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	runner := NewTxRunner(db, sql.LevelDefault)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stock" SET .* WHERE id = \$\d+`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := runner.Run(context.Background(), func(tx *gorm.DB) error {
		return NewStockRepository(db).SetCantidad(context.Background(), tx, 7, 0)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate(t *testing.T) {
	offset, limit := paginate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 50, limit)

	offset, limit = paginate(3, 20)
	assert.Equal(t, 40, offset)
	assert.Equal(t, 20, limit)

	_, limit = paginate(1, 10_000)
	assert.Equal(t, 50, limit)
}

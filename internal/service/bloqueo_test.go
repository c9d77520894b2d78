package service

import (
	"context"
	"testing"

	"tiendapos/internal/apierror"
	"tiendapos/internal/model"
	"tiendapos/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockStockRepo is the real stock repository over sqlmock with the postgres
// dialect; expectations are matched in order, so they pin the lock sequence.
func mockStockRepo(t *testing.T) (repository.StockRepository, *gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return repository.NewStockRepository(db), db, mock
}

var stockCols = []string{"id", "producto_id", "talle_id", "local_id", "lugar_id", "estado_id", "cantidad", "en_perchero", "codigo_sku"}

const lookupForUpdate = `SELECT \* FROM "stock" WHERE producto_id = \$1 AND talle_id = \$2 AND local_id = \$3 AND lugar_id = \$4 AND estado_id = \$5 LIMIT \$6 FOR UPDATE$`

const findByIDForUpdate = `SELECT \* FROM "stock" WHERE "stock"\."id" = \$1 ORDER BY "stock"\."id" LIMIT \$2 FOR UPDATE$`

func TestBloquearClaves_TransferenciaHaciaUnLocalMenor(t *testing.T) {
	repo, db, mock := mockStockRepo(t)

	// Local 2 -> local 1, talles 2 and 1, in the order Transferir builds them.
	origen := model.GrupoStock{ProductoID: 1, LocalID: 2, LugarID: 1, EstadoID: 1}
	destino := model.GrupoStock{ProductoID: 1, LocalID: 1, LugarID: 1, EstadoID: 1}
	claves := []model.ClaveStock{
		origen.Clave(2), destino.Clave(2),
		origen.Clave(1), destino.Clave(1),
	}

	for _, k := range []model.ClaveStock{destino.Clave(1), origen.Clave(1), destino.Clave(2), origen.Clave(2)} {
		rows := sqlmock.NewRows(stockCols)
		if k.LocalID == 2 {
			rows.AddRow(int64(10+k.TalleID), int64(k.ProductoID), int64(k.TalleID), int64(k.LocalID), int64(k.LugarID), int64(k.EstadoID), 4, true, nil)
		}
		mock.ExpectQuery(lookupForUpdate).
			WithArgs(k.ProductoID, k.TalleID, k.LocalID, k.LugarID, k.EstadoID, sqlmock.AnyArg()).
			WillReturnRows(rows)
	}

	got, err := bloquearClaves(context.Background(), db, repo, claves)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, got, 4)
	src, found := got[origen.Clave(2)].Found()
	require.True(t, found)
	assert.Equal(t, uint(12), src.ID)
	_, found = got[destino.Clave(2)].Found()
	assert.False(t, found, "absent destination comes back as absent")
}

func TestBloquearClaves_ClaveRepetidaSeBloqueaUnaVez(t *testing.T) {
	repo, db, mock := mockStockRepo(t)
	k := model.ClaveStock{ProductoID: 3, TalleID: 1, LocalID: 1, LugarID: 1, EstadoID: 1}

	mock.ExpectQuery(lookupForUpdate).WillReturnRows(sqlmock.NewRows(stockCols))

	got, err := bloquearClaves(context.Background(), db, repo, []model.ClaveStock{k, k})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBloquearPorID_VentaConLineasDesordenadas(t *testing.T) {
	repo, db, mock := mockStockRepo(t)

	// Cart lines in the order 9, 4, 9, 7.
	for _, id := range []uint{4, 7, 9} {
		mock.ExpectQuery(findByIDForUpdate).
			WithArgs(id, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(stockCols).AddRow(int64(id), 1, 1, 1, 1, 1, 5, true, nil))
	}

	got, err := bloquearPorID(context.Background(), db, repo, []uint{9, 4, 9, 7})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, got, 3)
	assert.Equal(t, 5, got[9].Cantidad)
}

func TestBloquearPorID_FilaInexistente(t *testing.T) {
	repo, db, mock := mockStockRepo(t)

	mock.ExpectQuery(findByIDForUpdate).
		WithArgs(uint(2), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(stockCols).AddRow(2, 1, 1, 1, 1, 1, 5, true, nil))
	mock.ExpectQuery(findByIDForUpdate).
		WithArgs(uint(8), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(stockCols))

	_, err := bloquearPorID(context.Background(), db, repo, []uint{8, 2})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaveStockMenor(t *testing.T) {
	a := model.ClaveStock{ProductoID: 1, TalleID: 2, LocalID: 1, LugarID: 1, EstadoID: 1}
	b := model.ClaveStock{ProductoID: 1, TalleID: 1, LocalID: 9, LugarID: 9, EstadoID: 9}

	assert.True(t, b.Menor(a), "talle decides before local")
	assert.False(t, a.Menor(b))
	assert.False(t, a.Menor(a))
}

package report

import (
	"bytes"
	"testing"
	"time"

	"tiendapos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMovimientosCaja_RunningBalanceAndTotals(t *testing.T) {
	ref := "15"
	caja := &model.Caja{ID: 3, LocalID: 1, FechaApertura: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	movs := []model.MovimientoCaja{
		{ID: 1, Tipo: model.MovIngreso, Origen: model.OrigenVenta, Descripcion: "Venta #15", Monto: decimal.NewFromInt(1000), Referencia: &ref},
		{ID: 2, Tipo: model.MovEgreso, Origen: model.OrigenDevolucion, Descripcion: "Devolución de venta #15", Monto: decimal.NewFromInt(250)},
		{ID: 3, Tipo: model.MovEgreso, Origen: model.OrigenRetiroRecaudacion, Descripcion: "Recaudación", Monto: decimal.NewFromInt(500)},
	}

	var buf bytes.Buffer
	require.NoError(t, MovimientosCaja(&buf, caja, movs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(hojaMovimientos)
	require.NoError(t, err)
	require.Len(t, rows, 7) // title, blank, header, 3 movements, totals

	assert.Contains(t, rows[0][0], "Caja #3")
	assert.Equal(t, encabezados, rows[2])
	assert.Equal(t, "15", rows[3][5])
	assert.Equal(t, "1000", rows[3][8])
	assert.Equal(t, "750", rows[4][8])
	assert.Equal(t, "250", rows[5][8])

	totales := rows[6]
	assert.Equal(t, "Totales", totales[0])
	assert.Equal(t, "1000", totales[6])
	assert.Equal(t, "750", totales[7])
	assert.Equal(t, "250", totales[8])
}

func TestMovimientosCaja_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MovimientosCaja(&buf, &model.Caja{ID: 1}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(hojaMovimientos, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Totales", v)
}

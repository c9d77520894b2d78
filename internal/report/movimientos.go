// Package report renders cash-register ledgers as spreadsheets.
package report

import (
	"fmt"
	"io"

	"tiendapos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	hojaMovimientos = "Movimientos"
)

var encabezados = []string{"ID", "Fecha", "Tipo", "Origen", "Descripcion", "Referencia", "Ingreso", "Egreso", "Saldo"}

// MovimientosCaja writes one row per ledger entry with a running balance
// column, followed by the totals row. The running column starts at zero:
// saldo_inicial is not part of the ledger.
func MovimientosCaja(w io.Writer, caja *model.Caja, movs []model.MovimientoCaja) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hojaMovimientos); err != nil {
		return err
	}

	titulo := fmt.Sprintf("Caja #%d - local %d - apertura %s", caja.ID, caja.LocalID, caja.FechaApertura.Format("2006-01-02 15:04"))
	if err := f.SetCellValue(hojaMovimientos, "A1", titulo); err != nil {
		return err
	}
	for i, h := range encabezados {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(hojaMovimientos, cell, h); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(hojaMovimientos, "A3", "I3", bold); err != nil {
		return err
	}

	saldo, ingresos, egresos := decimal.Zero, decimal.Zero, decimal.Zero
	row := 4
	for _, m := range movs {
		var ingreso, egreso any
		switch m.Tipo {
		case model.MovIngreso:
			saldo = saldo.Add(m.Monto)
			ingresos = ingresos.Add(m.Monto)
			ingreso = m.Monto.InexactFloat64()
		case model.MovEgreso:
			saldo = saldo.Sub(m.Monto)
			egresos = egresos.Add(m.Monto)
			egreso = m.Monto.InexactFloat64()
		}
		ref := ""
		if m.Referencia != nil {
			ref = *m.Referencia
		}
		valores := []any{m.ID, m.Fecha.Format("2006-01-02 15:04:05"), m.Tipo, m.Origen, m.Descripcion, ref, ingreso, egreso, saldo.InexactFloat64()}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(hojaMovimientos, cell, &valores); err != nil {
			return err
		}
		row++
	}

	totales := []any{"Totales", nil, nil, nil, nil, nil, ingresos.InexactFloat64(), egresos.InexactFloat64(), saldo.InexactFloat64()}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(hojaMovimientos, cell, &totales); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(encabezados), row)
	if err := f.SetCellStyle(hojaMovimientos, cell, last, bold); err != nil {
		return err
	}

	_ = f.SetColWidth(hojaMovimientos, "B", "B", 20)
	_ = f.SetColWidth(hojaMovimientos, "E", "E", 40)

	return f.Write(w)
}

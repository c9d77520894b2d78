package service

import (
	"testing"

	"tiendapos/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCalcularSaldo(t *testing.T) {
	movs := []model.MovimientoCaja{
		{Tipo: model.MovIngreso, Monto: dec("2000")},
		{Tipo: model.MovEgreso, Monto: dec("500.50")},
		{Tipo: model.MovIngreso, Monto: dec("0.25")},
		{Tipo: model.MovEgreso, Monto: dec("1000")},
	}

	s := CalcularSaldo(movs)

	assertDec(t, "2000.25", s.Ingresos)
	assertDec(t, "1500.50", s.Egresos)
	assertDec(t, "499.75", s.Total)
}

func TestCalcularSaldo_Vacio(t *testing.T) {
	s := CalcularSaldo(nil)
	assert.True(t, s.Total.IsZero())
}

func TestCalcularSaldo_OrdenIndiferente(t *testing.T) {
	a := []model.MovimientoCaja{
		{Tipo: model.MovEgreso, Monto: dec("30")},
		{Tipo: model.MovIngreso, Monto: dec("10")},
	}
	b := []model.MovimientoCaja{a[1], a[0]}
	assert.True(t, CalcularSaldo(a).Total.Equal(CalcularSaldo(b).Total))
	assertDec(t, "-20", CalcularSaldo(a).Total)
}

func TestCalcularTotalFinal(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		ajuste     string
		recargo    string
		cuotas     int
		total      string
		porCuota   string
		descuento  string
		recargoPct string
	}{
		{"sin ajuste", "1000", "0", "0", 1, "1000", "1000", "0", "0"},
		{"descuento efectivo", "1000", "-10", "0", 1, "900", "900", "10", "0"},
		{"recargo del medio", "1000", "5", "0", 1, "1050", "1050", "0", "5"},
		{"cuotas con recargo", "1000", "0", "15", 3, "1150", "383.33", "0", "15"},
		{"recargo de cuotas ignorado en un pago", "1000", "0", "15", 1, "1000", "1000", "0", "0"},
		{"ajuste y cuotas se componen", "1000", "10", "20", 2, "1320", "660", "0", "30"},
		{"redondeo a centavos", "99.99", "-7.5", "0", 1, "92.49", "92.49", "7.5", "0"},
		{"cuotas cero equivale a una", "100", "0", "0", 0, "100", "100", "0", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := CalcularTotalFinal(dec(tc.base), dec(tc.ajuste), dec(tc.recargo), tc.cuotas)
			assertDec(t, tc.total, f.Total)
			assertDec(t, tc.porCuota, f.MontoPorCuota)

			descuento, recargo := f.Porcentajes()
			assertDec(t, tc.descuento, descuento)
			assertDec(t, tc.recargoPct, recargo)
		})
	}
}

func TestCalcularTotalFinal_CuotasNoSuperanElTotal(t *testing.T) {
	f := CalcularTotalFinal(dec("100"), dec("0"), dec("0"), 3)
	assertDec(t, "33.33", f.MontoPorCuota)
	assert.True(t, f.MontoPorCuota.Mul(dec("3")).LessThanOrEqual(f.Total))
	assertDec(t, "0.01", f.DiferenciaRedondeo)
	assert.True(t, f.MontoPorCuota.Mul(dec("3")).Add(f.DiferenciaRedondeo).Equal(f.Total))
}

func TestCalcularTotalFinal_UnPagoSinDiferencia(t *testing.T) {
	f := CalcularTotalFinal(dec("92.49"), dec("0"), dec("0"), 1)
	assert.True(t, f.DiferenciaRedondeo.IsZero())
}

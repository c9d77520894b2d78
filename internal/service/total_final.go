package service

import "github.com/shopspring/decimal"

var cien = decimal.NewFromInt(100)

// TotalFinal is the price after the payment-method adjustment and the
// installment surcharge.
type TotalFinal struct {
	Base               decimal.Decimal
	Ajuste             decimal.Decimal // % del medio de pago, negativo = descuento
	RecargoCuotas      decimal.Decimal // % por pagar en cuotas
	Total              decimal.Decimal
	Cuotas             int
	MontoPorCuota      decimal.Decimal
	// Total minus the sum of the floored installments; the last one carries it.
	DiferenciaRedondeo decimal.Decimal
}

// CalcularTotalFinal applies base·(1+ajuste/100)·(1+recargo/100), rounds the
// total to cents and floors the per-installment amount so the installments
// never add up to more than the total.
func CalcularTotalFinal(base, ajuste, recargoCuotas decimal.Decimal, cuotas int) TotalFinal {
	if cuotas < 1 {
		cuotas = 1
	}
	total := base.Mul(decimal.NewFromInt(1).Add(ajuste.Div(cien)))
	if cuotas > 1 && !recargoCuotas.IsZero() {
		total = total.Mul(decimal.NewFromInt(1).Add(recargoCuotas.Div(cien)))
	}
	total = total.Round(2)
	n := decimal.NewFromInt(int64(cuotas))
	porCuota := total.Div(n).RoundFloor(2)
	return TotalFinal{
		Base:               base,
		Ajuste:             ajuste,
		RecargoCuotas:      recargoCuotas,
		Total:              total,
		Cuotas:             cuotas,
		MontoPorCuota:      porCuota,
		DiferenciaRedondeo: total.Sub(porCuota.Mul(n)),
	}
}

// Porcentajes splits the combined adjustment into the discount and surcharge
// percentages stored on the sale.
func (t TotalFinal) Porcentajes() (descuento, recargo decimal.Decimal) {
	descuento, recargo = decimal.Zero, decimal.Zero
	if t.Ajuste.IsNegative() {
		descuento = t.Ajuste.Neg()
	} else {
		recargo = t.Ajuste
	}
	if t.Cuotas > 1 {
		recargo = recargo.Add(t.RecargoCuotas)
	}
	return descuento, recargo
}

package service

import (
	"tiendapos/internal/model"

	"github.com/shopspring/decimal"
)

// Saldo is the projection of a register ledger.
type Saldo struct {
	Ingresos decimal.Decimal
	Egresos  decimal.Decimal
	Total    decimal.Decimal
}

// CalcularSaldo sums ingress minus egress over the entries. It is recomputed
// on every call; no running balance is ever stored.
func CalcularSaldo(movs []model.MovimientoCaja) Saldo {
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, m := range movs {
		switch m.Tipo {
		case model.MovIngreso:
			ingresos = ingresos.Add(m.Monto)
		case model.MovEgreso:
			egresos = egresos.Add(m.Monto)
		}
	}
	return Saldo{Ingresos: ingresos, Egresos: egresos, Total: ingresos.Sub(egresos)}
}

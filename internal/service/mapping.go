package service

import (
	"tiendapos/internal/dto"
	"tiendapos/internal/model"
)

func stockToResponse(s *model.Stock) dto.StockResponse {
	resp := dto.StockResponse{
		ID:         s.ID,
		ProductoID: s.ProductoID,
		TalleID:    s.TalleID,
		LocalID:    s.LocalID,
		LugarID:    s.LugarID,
		EstadoID:   s.EstadoID,
		Cantidad:   s.Cantidad,
		EnPerchero: s.EnPerchero,
		CodigoSKU:  s.CodigoSKU,
	}
	if s.Producto != nil {
		resp.Producto = s.Producto.Nombre
	}
	if s.Talle != nil {
		resp.Talle = s.Talle.Nombre
	}
	if s.Local != nil {
		resp.Local = s.Local.Nombre
	}
	if s.Lugar != nil {
		resp.Lugar = s.Lugar.Nombre
	}
	if s.Estado != nil {
		resp.Estado = s.Estado.Nombre
	}
	return resp
}

func stocksToResponse(rows []model.Stock) []dto.StockResponse {
	out := make([]dto.StockResponse, 0, len(rows))
	for i := range rows {
		out = append(out, stockToResponse(&rows[i]))
	}
	return out
}

func ventaToResponse(v *model.Venta) dto.VentaResponse {
	resp := dto.VentaResponse{
		ID:                  v.ID,
		Fecha:               v.Fecha,
		ClienteID:           v.ClienteID,
		UsuarioID:           v.UsuarioID,
		LocalID:             v.LocalID,
		CajaID:              v.CajaID,
		Total:               v.Total,
		DescuentoPorcentaje: v.DescuentoPorcentaje,
		RecargoPorcentaje:   v.RecargoPorcentaje,
		Cuotas:              v.Cuotas,
		Estado:              v.Estado,
		Detalles:            make([]dto.DetalleVentaResponse, 0, len(v.Detalles)),
		MediosPago:          make([]dto.VentaMedioPagoResponse, 0, len(v.MediosPago)),
	}
	for _, d := range v.Detalles {
		resp.Detalles = append(resp.Detalles, dto.DetalleVentaResponse{
			ID:             d.ID,
			StockID:        d.StockID,
			Cantidad:       d.Cantidad,
			PrecioUnitario: d.PrecioUnitario,
			Descuento:      d.Descuento,
			Subtotal:       d.Subtotal,
		})
	}
	for _, mp := range v.MediosPago {
		resp.MediosPago = append(resp.MediosPago, dto.VentaMedioPagoResponse{MedioPagoID: mp.MedioPagoID, Monto: mp.Monto})
	}
	return resp
}

func devolucionToResponse(d *model.Devolucion) dto.DevolucionResponse {
	resp := dto.DevolucionResponse{
		ID:        d.ID,
		VentaID:   d.VentaID,
		UsuarioID: d.UsuarioID,
		LocalID:   d.LocalID,
		Motivo:    d.Motivo,
		Total:     d.Total,
		Fecha:     d.Fecha,
		Detalles:  make([]dto.DetalleDevolucionResponse, 0, len(d.Detalles)),
	}
	for _, dd := range d.Detalles {
		resp.Detalles = append(resp.Detalles, dto.DetalleDevolucionResponse{
			ID:             dd.ID,
			DetalleVentaID: dd.DetalleVentaID,
			StockID:        dd.StockID,
			Cantidad:       dd.Cantidad,
			Monto:          dd.Monto,
			PrecioUnitario: dd.PrecioUnitario,
		})
	}
	return resp
}

func cajaToResponse(c *model.Caja, saldo Saldo) dto.CajaResponse {
	return dto.CajaResponse{
		ID:            c.ID,
		LocalID:       c.LocalID,
		UsuarioID:     c.UsuarioID,
		SaldoInicial:  c.SaldoInicial,
		SaldoFinal:    c.SaldoFinal,
		Saldo:         saldo.Total,
		FechaApertura: c.FechaApertura,
		FechaCierre:   c.FechaCierre,
	}
}

func movimientoToResponse(m *model.MovimientoCaja) dto.MovimientoCajaResponse {
	return dto.MovimientoCajaResponse{
		ID:          m.ID,
		CajaID:      m.CajaID,
		Tipo:        m.Tipo,
		Origen:      m.Origen,
		Descripcion: m.Descripcion,
		Monto:       m.Monto,
		Fecha:       m.Fecha,
		Referencia:  m.Referencia,
	}
}

func recaudacionToResponse(r *model.CajaRecaudacion) dto.RecaudacionResponse {
	return dto.RecaudacionResponse{
		ID:               r.ID,
		CajaID:           r.CajaID,
		LocalID:          r.LocalID,
		UsuarioID:        r.UsuarioID,
		MovimientoCajaID: r.MovimientoCajaID,
		Monto:            r.Monto,
		FechaRecaudacion: r.FechaRecaudacion,
		Observaciones:    r.Observaciones,
	}
}

func strPtr(s string) *string { return &s }

package model

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Producto{},
		&Talle{},
		&Local{},
		&Lugar{},
		&Estado{},
		&Cliente{},
		&Stock{},
		&MovimientoStock{},
		&MedioPago{},
		&MedioPagoCuota{},
		&Caja{},
		&MovimientoCaja{},
		&MovimientoCajaPendiente{},
		&CajaRecaudacion{},
		&Venta{},
		&DetalleVenta{},
		&VentaMedioPago{},
		&Devolucion{},
		&DetalleDevolucion{},
	}
}

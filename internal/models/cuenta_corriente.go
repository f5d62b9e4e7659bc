package models

import "time"

type EstadoCuenta string

const (
	CuentaAlDia   EstadoCuenta = "al_dia"
	CuentaEnDeuda EstadoCuenta = "deuda"
	CuentaCerrada EstadoCuenta = "cerrada"
)

// CuentaCorriente - Saldo corriente de un cliente atado a una venta.
// El saldo cacheado se deriva siempre de los movimientos: suma de débitos
// menos suma de créditos, nunca se edita a mano.
type CuentaCorriente struct {
	ID uint `gorm:"primaryKey"`

	ClienteID uint `gorm:"index;not null"`
	Cliente   Cliente

	VentaID *uint `gorm:"uniqueIndex"`
	Venta   *Venta

	Saldo  float64      `gorm:"not null;default:0"`
	Estado EstadoCuenta `gorm:"size:20;not null;default:'al_dia';index"`

	Movimientos []MovimientoCuenta `gorm:"foreignKey:CuentaID;constraint:OnDelete:CASCADE"`
	Pagos       []Pago             `gorm:"foreignKey:CuentaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TipoMovimiento string

const (
	MovDebe  TipoMovimiento = "debe"
	MovHaber TipoMovimiento = "haber"
	// Tipos legados, se agregan junto con debe/haber al derivar el saldo
	MovDeuda TipoMovimiento = "deuda"
	MovPago  TipoMovimiento = "pago"
)

type OrigenMovimiento string

const (
	OrigenManual  OrigenMovimiento = "manual"
	OrigenPlan    OrigenMovimiento = "plan"
	OrigenPago    OrigenMovimiento = "pago"
	OrigenAjuste  OrigenMovimiento = "ajuste"
	OrigenPermuta OrigenMovimiento = "permuta"
)

// MovimientoCuenta - Asiento del libro de la cuenta. Inmutable una vez creado:
// no hay updates, el saldo siempre se recalcula sumando el historial completo.
type MovimientoCuenta struct {
	ID uint `gorm:"primaryKey"`

	CuentaID uint `gorm:"index;not null"`
	Cuenta   CuentaCorriente

	// Vehículo opcional para imputar gastos (permutas, gastos de ingreso)
	VehiculoID *uint `gorm:"index"`
	Vehiculo   *Vehiculo

	// Seteado solo para el débito inicial de un plan de pago; garantiza un
	// único movimiento de deuda por plan sin comparar descripciones.
	PlanID *uint `gorm:"index"`

	Fecha       time.Time        `gorm:"index;not null"`
	Descripcion string           `gorm:"size:255;not null"`
	Tipo        TipoMovimiento   `gorm:"size:10;not null;index"`
	Monto       float64          `gorm:"not null"`
	Origen      OrigenMovimiento `gorm:"size:20;not null;default:'manual'"`

	CreatedAt time.Time
}

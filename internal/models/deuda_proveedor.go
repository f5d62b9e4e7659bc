package models

import "time"

type EstadoDeuda string

const (
	DeudaPendiente EstadoDeuda = "pendiente"
	DeudaPagada    EstadoDeuda = "pagada"
)

// DeudaProveedor - Deuda con un proveedor (gestoría, taller, gastos de
// ingreso de un vehículo). Mismo patrón de saldo que la cuenta corriente
// pero a escala chica: total menos pagos hijos.
type DeudaProveedor struct {
	ID uint `gorm:"primaryKey"`

	Proveedor   string `gorm:"size:150;not null"`
	Descripcion string `gorm:"size:500;not null"`

	// Vehículo opcional para atribuir el gasto
	VehiculoID *uint `gorm:"index"`
	Vehiculo   *Vehiculo

	Monto float64   `gorm:"not null"`
	Fecha time.Time `gorm:"index;not null"`

	Estado EstadoDeuda `gorm:"size:20;not null;default:'pendiente';index"`

	Pagos []PagoProveedor `gorm:"foreignKey:DeudaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PagoProveedor - Pago aplicado a una deuda de proveedor.
type PagoProveedor struct {
	ID uint `gorm:"primaryKey"`

	DeudaID uint `gorm:"index;not null"`
	Deuda   DeudaProveedor

	Monto       float64   `gorm:"not null"`
	Fecha       time.Time `gorm:"index;not null"`
	Descripcion string    `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

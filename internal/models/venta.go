package models

import "time"

type EstadoVenta string

const (
	VentaPendiente  EstadoVenta = "pendiente"
	VentaConfirmada EstadoVenta = "confirmada"
	VentaRevertida  EstadoVenta = "revertida"
)

type Venta struct {
	ID uint `gorm:"primaryKey"`

	// Un vehículo puede acumular ventas revertidas; la regla "una sola venta
	// en curso por vehículo" la aplica el alta, no un índice único.
	VehiculoID *uint `gorm:"index"`
	Vehiculo   *Vehiculo

	ClienteID *uint `gorm:"index"`
	Cliente   *Cliente

	Estado EstadoVenta `gorm:"size:20;not null;default:'pendiente';index"`

	FechaVenta  time.Time `gorm:"index;not null"`
	PrecioVenta *float64

	Observaciones string `gorm:"size:500"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

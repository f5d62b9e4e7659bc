package models

import "time"

type EstadoVehiculo string

const (
	VehiculoEnStock EstadoVehiculo = "stock"
	VehiculoVendido EstadoVehiculo = "vendido"
	VehiculoPermuta EstadoVehiculo = "permuta" // recibido como parte de pago
)

type Vehiculo struct {
	ID      uint   `gorm:"primaryKey"`
	Dominio string `gorm:"size:20;uniqueIndex;not null"` // patente
	Marca   string `gorm:"size:60;not null"`
	Modelo  string `gorm:"size:100;not null"`
	Anio    uint   `gorm:"not null"`
	Precio  float64

	Estado EstadoVehiculo `gorm:"size:20;not null;default:'stock';index"`

	Observaciones string `gorm:"size:500"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

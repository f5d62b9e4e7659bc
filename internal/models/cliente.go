package models

import "time"

type CumplimientoPago string

const (
	CumplimientoVerde    CumplimientoPago = "verde"    // cumple en tiempo y forma
	CumplimientoAmarillo CumplimientoPago = "amarillo" // atrasos moderados
	CumplimientoRojo     CumplimientoPago = "rojo"     // incumplimiento
)

type Cliente struct {
	ID             uint   `gorm:"primaryKey"`
	NombreCompleto string `gorm:"size:150;not null"`
	Telefono       string `gorm:"size:50"`
	Email          string `gorm:"size:100"`
	DNICuit        string `gorm:"size:20"`
	Direccion      string `gorm:"size:255"`

	// Baja lógica: el cliente nunca se borra físicamente
	Activo bool `gorm:"default:true"`

	// Comportamiento de pago, alimenta las reglas comerciales
	CumplimientoPago CumplimientoPago `gorm:"size:10;default:'verde'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReglaComercial - Condiciones de financiación según el color del cliente
type ReglaComercial struct {
	ID                uint             `gorm:"primaryKey"`
	ColorCliente      CumplimientoPago `gorm:"size:10;uniqueIndex;not null"`
	PermiteFinanciar  bool             `gorm:"default:true"`
	AnticipoMinimoPct uint             `gorm:"not null"` // porcentaje mínimo de anticipo
	MaxCuotas         uint             `gorm:"not null"`
	AceptaCheques     bool             `gorm:"default:true"`
	Observaciones     string           `gorm:"size:500"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

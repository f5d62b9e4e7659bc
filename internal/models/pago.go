package models

import "time"

type FormaPago string

const (
	FormaEfectivo FormaPago = "efectivo"
	FormaCheque   FormaPago = "cheque"
)

// Pago - Recibo de fondos del cliente. Inmutable después de creado; el número
// de recibo se asigna una sola vez y nunca se reutiliza.
type Pago struct {
	ID uint `gorm:"primaryKey"`

	CuentaID uint `gorm:"index;not null"`
	Cuenta   CuentaCorriente

	NumeroRecibo string    `gorm:"size:20;uniqueIndex;not null"` // RC-<año>-<secuencia de 6 dígitos>
	Fecha        time.Time `gorm:"index;not null"`

	FormaPago    FormaPago `gorm:"size:20;not null"`
	Banco        string    `gorm:"size:100"`
	NumeroCheque string    `gorm:"size:100"`

	MontoTotal    float64 `gorm:"not null"`
	Observaciones string  `gorm:"size:500"`

	// Fotos del saldo alrededor del pago, solo informativas
	SaldoAnterior  *float64
	SaldoPosterior *float64

	// Clave contra doble submit: índice único, el segundo intento con la
	// misma clave falla en la base aunque dos requests entren a la vez.
	ClaveIdempotencia string `gorm:"size:40;uniqueIndex;not null"`

	Aplicaciones []PagoCuota `gorm:"foreignKey:PagoID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

// PagoCuota - Cuánto de un pago se aplicó a una cuota puntual. Cada
// aplicación genera su movimiento de haber en la cuenta.
type PagoCuota struct {
	ID uint `gorm:"primaryKey"`

	PagoID uint `gorm:"index;not null"`
	Pago   Pago

	CuotaID uint `gorm:"index;not null"`
	Cuota   CuotaPlan

	MontoAplicado float64 `gorm:"not null"`

	CreatedAt time.Time
}

// ReciboContador - Fila contadora por año para numerar recibos. Se incrementa
// con un UPDATE atómico dentro de la transacción del pago.
type ReciboContador struct {
	ID           uint `gorm:"primaryKey"`
	Anio         int  `gorm:"uniqueIndex;not null"`
	UltimoNumero int  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

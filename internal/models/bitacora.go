package models

import "time"

// BitacoraCuenta - Registro de acciones sobre una cuenta corriente. Solo se
// agrega, nunca se edita ni se deshace: el libro de movimientos es inmutable
// y la bitácora lo acompaña.
type BitacoraCuenta struct {
	ID uint `gorm:"primaryKey"`

	// Nula para eventos globales (login de usuarios, altas de clientes)
	CuentaID *uint `gorm:"index"`

	UsuarioID     uint   `gorm:"index"`
	UsuarioNombre string `gorm:"size:100"` // denormalizado

	Accion  string `gorm:"size:100;not null"`
	Detalle string `gorm:"size:500"`

	// Foto del dato afectado (JSON)
	Datos string `gorm:"type:jsonb"`

	CreatedAt time.Time
}

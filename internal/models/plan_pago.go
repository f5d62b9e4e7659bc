package models

import "time"

type EstadoPlan string

const (
	PlanActivo     EstadoPlan = "activo"
	PlanFinalizado EstadoPlan = "finalizado"
)

type TipoPlan string

const (
	PlanCuotas  TipoPlan = "cuotas"
	PlanUnico   TipoPlan = "unico"
	PlanCheques TipoPlan = "cheques"
)

type Moneda string

const (
	MonedaARS Moneda = "ARS"
	MonedaUSD Moneda = "USD"
)

// PlanPago - Acuerdo de financiación de una cuenta. Uno por cuenta.
type PlanPago struct {
	ID uint `gorm:"primaryKey"`

	CuentaID uint `gorm:"uniqueIndex;not null"`
	Cuenta   CuentaCorriente

	Descripcion     string   `gorm:"size:255;not null"`
	TipoPlan        TipoPlan `gorm:"size:20;not null;default:'cuotas'"`
	MontoFinanciado float64  `gorm:"not null"`
	Anticipo        float64  `gorm:"not null;default:0"`
	CantidadCuotas  uint     `gorm:"not null"`
	MontoCuota      float64  `gorm:"not null"`
	FechaInicio     time.Time `gorm:"not null"`

	InteresMoraMensual float64 `gorm:"not null;default:0"` // % mensual sobre saldo vencido
	InteresDescripcion string  `gorm:"size:500"`

	Moneda Moneda     `gorm:"size:3;not null;default:'ARS'"`
	Estado EstadoPlan `gorm:"size:20;not null;default:'activo';index"`

	Cuotas []CuotaPlan `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EstadoCuota string

const (
	CuotaPendiente EstadoCuota = "pendiente"
	CuotaPagada    EstadoCuota = "pagada"
)

// CuotaPlan - Obligación programada dentro de un plan. Los vencimientos van
// cada 30 días desde la fecha de inicio y el número acompaña el orden de
// generación.
type CuotaPlan struct {
	ID uint `gorm:"primaryKey"`

	PlanID uint `gorm:"index;not null"`
	Plan   PlanPago

	Numero      uint      `gorm:"not null"`
	Vencimiento time.Time `gorm:"index;not null"`
	Monto       float64   `gorm:"not null"`

	Estado EstadoCuota `gorm:"size:20;not null;default:'pendiente';index"`

	Aplicaciones []PagoCuota `gorm:"foreignKey:CuotaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalAplicado suma las aplicaciones precargadas. Requiere Preload("Aplicaciones").
func (c *CuotaPlan) TotalAplicado() float64 {
	total := 0.0
	for _, a := range c.Aplicaciones {
		total += a.MontoAplicado
	}
	return total
}

// SaldoPendiente - Lo que falta cubrir de la cuota, nunca negativo.
func (c *CuotaPlan) SaldoPendiente() float64 {
	resto := c.Monto - c.TotalAplicado()
	if resto < 0 {
		return 0
	}
	return resto
}

func (c *CuotaPlan) EstaVencida(hoy time.Time) bool {
	return c.Estado == CuotaPendiente && c.Vencimiento.Before(hoy)
}

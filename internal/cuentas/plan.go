package cuentas

import (
	"fmt"
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"gorm.io/gorm"
)

// ParamsPlan - Parámetros de alta/edición de un plan de pago.
type ParamsPlan struct {
	Descripcion        string
	TipoPlan           models.TipoPlan
	MontoFinanciado    float64
	Anticipo           float64
	CantidadCuotas     uint
	MontoCuota         float64
	FechaInicio        time.Time
	InteresMoraMensual float64
	InteresDescripcion string
	Moneda             models.Moneda
}

// diasEntreCuotas - Los vencimientos se espacian a período fijo desde la
// fecha de inicio del plan.
const diasEntreCuotas = 30

func (p *ParamsPlan) validar() error {
	if p.MontoFinanciado <= 0 {
		return fmt.Errorf("%w: el monto financiado debe ser mayor a cero", ErrPlanInvalido)
	}
	if p.Anticipo < 0 {
		return fmt.Errorf("%w: el anticipo no puede ser negativo", ErrPlanInvalido)
	}
	if p.Anticipo > p.MontoFinanciado {
		return fmt.Errorf("%w: el anticipo no puede superar el monto financiado", ErrPlanInvalido)
	}

	switch p.TipoPlan {
	case models.PlanCuotas:
		if p.CantidadCuotas == 0 {
			return fmt.Errorf("%w: debe indicar la cantidad de cuotas", ErrPlanInvalido)
		}
	case models.PlanUnico:
		p.CantidadCuotas = 1
	case models.PlanCheques:
		// Los cheques se siguen por movimientos, sin cronograma de cuotas
		p.CantidadCuotas = 0
		p.MontoCuota = 0
	default:
		return fmt.Errorf("%w: tipo de plan desconocido '%s'", ErrPlanInvalido, p.TipoPlan)
	}

	if p.Moneda == "" {
		p.Moneda = models.MonedaARS
	}
	return nil
}

// CrearOReemplazarPlan da de alta el plan de la cuenta (uno por cuenta) y
// genera su cronograma de cuotas. Si la cuenta ya tenía plan, lo regenera por
// completo, salvo que alguna cuota tenga pagos aplicados: en ese caso se
// rechaza para no destruir historial cobrado.
//
// El movimiento de deuda inicial se crea una sola vez por vida del plan,
// atado al ID del plan, sin importar cuántas veces se edite después.
func CrearOReemplazarPlan(db *gorm.DB, cuentaID uint, params ParamsPlan) (*models.PlanPago, error) {
	if err := params.validar(); err != nil {
		return nil, err
	}

	var plan *models.PlanPago

	err := db.Transaction(func(tx *gorm.DB) error {
		var cuenta models.CuentaCorriente
		if err := database.BloqueoFila(tx).First(&cuenta, "id = ?", cuentaID).Error; err != nil {
			return err
		}
		if cuenta.Estado == models.CuentaCerrada {
			return ErrCuentaCerrada
		}

		var existente models.PlanPago
		err := tx.Where("cuenta_id = ?", cuenta.ID).First(&existente).Error
		switch {
		case err == nil:
			// Regeneración destructiva: prohibida si hay cobros aplicados
			var aplicadas int64
			if err := tx.Model(&models.PagoCuota{}).
				Joins("JOIN cuota_plans ON cuota_plans.id = pago_cuota.cuota_id").
				Where("cuota_plans.plan_id = ?", existente.ID).
				Count(&aplicadas).Error; err != nil {
				return err
			}
			if aplicadas > 0 {
				return ErrPlanConPagos
			}

			if err := tx.Where("plan_id = ?", existente.ID).Delete(&models.CuotaPlan{}).Error; err != nil {
				return err
			}

			existente.Descripcion = params.Descripcion
			existente.TipoPlan = params.TipoPlan
			existente.MontoFinanciado = params.MontoFinanciado
			existente.Anticipo = params.Anticipo
			existente.CantidadCuotas = params.CantidadCuotas
			existente.MontoCuota = params.MontoCuota
			existente.FechaInicio = params.FechaInicio
			existente.InteresMoraMensual = params.InteresMoraMensual
			existente.InteresDescripcion = params.InteresDescripcion
			existente.Moneda = params.Moneda
			existente.Estado = models.PlanActivo

			if err := tx.Save(&existente).Error; err != nil {
				return err
			}
			plan = &existente

		case err == gorm.ErrRecordNotFound:
			nuevo := models.PlanPago{
				CuentaID:           cuenta.ID,
				Descripcion:        params.Descripcion,
				TipoPlan:           params.TipoPlan,
				MontoFinanciado:    params.MontoFinanciado,
				Anticipo:           params.Anticipo,
				CantidadCuotas:     params.CantidadCuotas,
				MontoCuota:         params.MontoCuota,
				FechaInicio:        params.FechaInicio,
				InteresMoraMensual: params.InteresMoraMensual,
				InteresDescripcion: params.InteresDescripcion,
				Moneda:             params.Moneda,
				Estado:             models.PlanActivo,
			}
			if err := tx.Create(&nuevo).Error; err != nil {
				return err
			}
			plan = &nuevo

		default:
			return err
		}

		if err := generarCuotas(tx, plan); err != nil {
			return err
		}

		if err := asegurarDeudaDePlan(tx, &cuenta, plan); err != nil {
			return err
		}

		return RecalcularSaldo(tx, &cuenta)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// generarCuotas crea el cronograma 1..N con vencimientos cada 30 días.
func generarCuotas(tx *gorm.DB, plan *models.PlanPago) error {
	fecha := plan.FechaInicio
	for i := uint(1); i <= plan.CantidadCuotas; i++ {
		cuota := models.CuotaPlan{
			PlanID:      plan.ID,
			Numero:      i,
			Vencimiento: fecha,
			Monto:       plan.MontoCuota,
			Estado:      models.CuotaPendiente,
		}
		if err := tx.Create(&cuota).Error; err != nil {
			return err
		}
		fecha = fecha.AddDate(0, 0, diasEntreCuotas)
	}
	return nil
}

// asegurarDeudaDePlan crea el débito inicial del plan si todavía no existe.
// La guarda es por plan_id, nunca por texto de la descripción.
func asegurarDeudaDePlan(tx *gorm.DB, cuenta *models.CuentaCorriente, plan *models.PlanPago) error {
	var existentes int64
	if err := tx.Model(&models.MovimientoCuenta{}).
		Where("plan_id = ?", plan.ID).
		Count(&existentes).Error; err != nil {
		return err
	}
	if existentes > 0 {
		return nil
	}

	mov := models.MovimientoCuenta{
		CuentaID:    cuenta.ID,
		PlanID:      &plan.ID,
		Fecha:       time.Now(),
		Descripcion: fmt.Sprintf("Plan de pago #%d - %s", plan.ID, plan.Descripcion),
		Tipo:        models.MovDebe,
		Monto:       plan.MontoFinanciado,
		Origen:      models.OrigenPlan,
	}
	return tx.Create(&mov).Error
}

// VerificarFinalizacion marca el plan como finalizado cuando no quedan cuotas
// pendientes. Devuelve si hubo transición; el caller recalcula el saldo (una
// sola vez por operación).
func VerificarFinalizacion(tx *gorm.DB, plan *models.PlanPago) (bool, error) {
	var pendientes int64
	err := tx.Model(&models.CuotaPlan{}).
		Where("plan_id = ? AND estado = ?", plan.ID, models.CuotaPendiente).
		Count(&pendientes).Error
	if err != nil {
		return false, err
	}

	if pendientes > 0 || plan.Estado == models.PlanFinalizado {
		return false, nil
	}

	plan.Estado = models.PlanFinalizado
	err = tx.Model(&models.PlanPago{}).
		Where("id = ?", plan.ID).
		Update("estado", models.PlanFinalizado).Error
	return err == nil, err
}

// EliminarPlan borra el plan, sus cuotas y su movimiento de deuda, y
// recalcula. Con pagos aplicados se rechaza, igual que la regeneración.
func EliminarPlan(db *gorm.DB, cuentaID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var cuenta models.CuentaCorriente
		if err := database.BloqueoFila(tx).First(&cuenta, "id = ?", cuentaID).Error; err != nil {
			return err
		}

		var plan models.PlanPago
		if err := tx.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err != nil {
			return err
		}

		var aplicadas int64
		if err := tx.Model(&models.PagoCuota{}).
			Joins("JOIN cuota_plans ON cuota_plans.id = pago_cuota.cuota_id").
			Where("cuota_plans.plan_id = ?", plan.ID).
			Count(&aplicadas).Error; err != nil {
			return err
		}
		if aplicadas > 0 {
			return ErrPlanConPagos
		}

		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.CuotaPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.MovimientoCuenta{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&plan).Error; err != nil {
			return err
		}

		return RecalcularSaldo(tx, &cuenta)
	})
}

// CalcularMora - Interés de mora de una cuota vencida. Valor informativo para
// pantallas y reportes, nunca se asienta como movimiento. Requiere la cuota
// con Aplicaciones precargadas.
func CalcularMora(cuota *models.CuotaPlan, plan *models.PlanPago, hoy time.Time) float64 {
	if !cuota.EstaVencida(hoy) {
		return 0
	}
	return cuota.SaldoPendiente() * plan.InteresMoraMensual / 100
}

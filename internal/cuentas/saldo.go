package cuentas

import (
	"time"

	"concesionaria-backend/internal/models"

	"gorm.io/gorm"
)

// Motor de saldo: el saldo cacheado de la cuenta se deriva siempre del libro
// de movimientos. Reglas del negocio:
//   - crear plan de pago  → genera deuda
//   - registrar pago      → reduce deuda
//   - saldo > 0           → deuda
//   - saldo <= 0          → 0, al día
//   - plan finalizado y saldo 0 → cerrada

// RecalcularSaldo deriva saldo y estado desde los movimientos y los persiste.
// Es idempotente: sin movimientos nuevos, dos llamadas dejan lo mismo.
// Debe correr dentro de la misma transacción que el movimiento que lo disparó.
func RecalcularSaldo(tx *gorm.DB, cuenta *models.CuentaCorriente) error {
	var totalDebe, totalHaber float64

	// Se aceptan los pares legados debe/haber y deuda/pago por igual
	err := tx.Model(&models.MovimientoCuenta{}).
		Where("cuenta_id = ? AND tipo IN ?", cuenta.ID, []models.TipoMovimiento{models.MovDebe, models.MovDeuda}).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&totalDebe).Error
	if err != nil {
		return err
	}

	err = tx.Model(&models.MovimientoCuenta{}).
		Where("cuenta_id = ? AND tipo IN ?", cuenta.ID, []models.TipoMovimiento{models.MovHaber, models.MovPago}).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&totalHaber).Error
	if err != nil {
		return err
	}

	saldo := totalDebe - totalHaber

	if saldo > 0 {
		cuenta.Saldo = saldo
		cuenta.Estado = models.CuentaEnDeuda
	} else {
		cuenta.Saldo = 0
		cuenta.Estado = models.CuentaAlDia
	}

	// Plan terminado y sin deuda: la cuenta queda cerrada
	var plan models.PlanPago
	if err := tx.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err == nil {
		if plan.Estado == models.PlanFinalizado && cuenta.Saldo == 0 {
			cuenta.Estado = models.CuentaCerrada
		}
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	return tx.Model(&models.CuentaCorriente{}).
		Where("id = ?", cuenta.ID).
		Updates(map[string]interface{}{
			"saldo":  cuenta.Saldo,
			"estado": cuenta.Estado,
		}).Error
}

// RegistrarMovimiento asienta un movimiento suelto con su origen (manual,
// permuta, ajuste) y recalcula. No valida el signo del monto: eso queda en
// manos del caller (los handlers sí validan).
func RegistrarMovimiento(tx *gorm.DB, cuenta *models.CuentaCorriente, descripcion string, tipo models.TipoMovimiento, monto float64, origen models.OrigenMovimiento, vehiculoID *uint) error {
	mov := models.MovimientoCuenta{
		CuentaID:    cuenta.ID,
		VehiculoID:  vehiculoID,
		Fecha:       time.Now(),
		Descripcion: descripcion,
		Tipo:        tipo,
		Monto:       monto,
		Origen:      origen,
	}
	if err := tx.Create(&mov).Error; err != nil {
		return err
	}
	return RecalcularSaldo(tx, cuenta)
}

// RegistrarDeuda crea un movimiento manual de debe y recalcula.
func RegistrarDeuda(tx *gorm.DB, cuenta *models.CuentaCorriente, descripcion string, monto float64, vehiculoID *uint) error {
	return RegistrarMovimiento(tx, cuenta, descripcion, models.MovDebe, monto, models.OrigenManual, vehiculoID)
}

// RegistrarPago crea un movimiento manual de haber y recalcula.
func RegistrarPago(tx *gorm.DB, cuenta *models.CuentaCorriente, descripcion string, monto float64, vehiculoID *uint) error {
	return RegistrarMovimiento(tx, cuenta, descripcion, models.MovHaber, monto, models.OrigenManual, vehiculoID)
}

// CerrarCuenta rechaza el cierre mientras quede deuda.
func CerrarCuenta(tx *gorm.DB, cuenta *models.CuentaCorriente) error {
	if cuenta.Saldo > 0 {
		return ErrCuentaConSaldo
	}
	cuenta.Estado = models.CuentaCerrada
	return tx.Model(&models.CuentaCorriente{}).
		Where("id = ?", cuenta.ID).
		Update("estado", models.CuentaCerrada).Error
}

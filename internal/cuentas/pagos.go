package cuentas

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParamsPago - Datos de un cobro a registrar sobre una cuenta.
//
// Con CuotaID el pago es dirigido: se aplica desde esa cuota en adelante.
// Sin CuotaID es un pago único: si la cuenta no tiene plan se crea un plan
// sintético de una cuota para dejar asentada la aplicación; si ya hay plan,
// el pago va directo al saldo como movimiento, sin tocar cuotas.
type ParamsPago struct {
	FormaPago     models.FormaPago
	Monto         float64
	CuotaID       *uint
	Banco         string
	NumeroCheque  string
	Observaciones string

	// Clave contra doble submit; si viene vacía se genera una en el server
	ClaveIdempotencia string
}

func (p *ParamsPago) validar() error {
	if p.Monto <= 0 {
		return ErrMontoInvalido
	}
	switch p.FormaPago {
	case models.FormaEfectivo:
	case models.FormaCheque:
		if strings.TrimSpace(p.Banco) == "" || strings.TrimSpace(p.NumeroCheque) == "" {
			return ErrDatosChequeFaltantes
		}
	default:
		return ErrFormaPagoFaltante
	}
	if p.ClaveIdempotencia == "" {
		p.ClaveIdempotencia = uuid.NewString()
	}
	return nil
}

// RegistrarPagoCuenta registra el cobro completo de forma atómica: el pago,
// sus aplicaciones a cuotas con un movimiento de haber por cada una, los
// cambios de estado de cuotas y plan, y un único recálculo de saldo al final.
// Si cualquier paso falla no queda nada persistido.
func RegistrarPagoCuenta(db *gorm.DB, cuentaID uint, params ParamsPago) (*models.Pago, error) {
	if err := params.validar(); err != nil {
		return nil, err
	}

	var pago *models.Pago

	err := db.Transaction(func(tx *gorm.DB) error {
		var cuenta models.CuentaCorriente
		if err := database.BloqueoFila(tx).First(&cuenta, "id = ?", cuentaID).Error; err != nil {
			return err
		}

		// Política estricta: un cobro nunca supera la deuda total
		if params.Monto > cuenta.Saldo {
			return ErrSaldoExcedido
		}

		// Doble submit con la misma clave: el primero gana
		var repetidos int64
		if err := tx.Model(&models.Pago{}).
			Where("clave_idempotencia = ?", params.ClaveIdempotencia).
			Count(&repetidos).Error; err != nil {
			return err
		}
		if repetidos > 0 {
			return ErrPagoDuplicado
		}

		numero, err := siguienteNumeroRecibo(tx, time.Now().Year())
		if err != nil {
			return err
		}

		saldoAnterior := cuenta.Saldo
		nuevo := models.Pago{
			CuentaID:          cuenta.ID,
			NumeroRecibo:      numero,
			Fecha:             time.Now(),
			FormaPago:         params.FormaPago,
			Banco:             strings.TrimSpace(params.Banco),
			NumeroCheque:      strings.TrimSpace(params.NumeroCheque),
			MontoTotal:        params.Monto,
			Observaciones:     strings.TrimSpace(params.Observaciones),
			SaldoAnterior:     &saldoAnterior,
			ClaveIdempotencia: params.ClaveIdempotencia,
		}
		if err := tx.Create(&nuevo).Error; err != nil {
			if esViolacionDeUnicidad(err) {
				return ErrModificacionConcurrente
			}
			return err
		}

		var plan models.PlanPago
		errPlan := tx.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error

		switch {
		case errPlan == gorm.ErrRecordNotFound:
			if params.CuotaID != nil {
				return ErrCuotaAjena
			}
			// Sin plan: plan sintético de una cuota para asentar el cobro.
			// No genera deuda propia, la deuda ya existe como movimientos.
			sintetico, err := crearPlanSintetico(tx, &cuenta, params.Monto)
			if err != nil {
				return err
			}
			if err := aplicarACuotas(tx, &cuenta, &nuevo, sintetico, nil, params); err != nil {
				return err
			}

		case errPlan == nil:
			if params.CuotaID == nil {
				// Plan existente y pago único: directo al saldo
				if err := crearMovimientoDeCobro(tx, &cuenta, &nuevo, "Pago a cuenta", params.Monto, params); err != nil {
					return err
				}
			} else {
				var inicio models.CuotaPlan
				if err := tx.First(&inicio, "id = ?", *params.CuotaID).Error; err != nil {
					if err == gorm.ErrRecordNotFound {
						return ErrCuotaAjena
					}
					return err
				}
				if inicio.PlanID != plan.ID {
					return ErrCuotaAjena
				}
				if err := aplicarACuotas(tx, &cuenta, &nuevo, &plan, &inicio, params); err != nil {
					return err
				}
			}

		default:
			return errPlan
		}

		if err := RecalcularSaldo(tx, &cuenta); err != nil {
			return err
		}

		// Foto del saldo resultante sobre el recibo
		if err := tx.Model(&models.Pago{}).
			Where("id = ?", nuevo.ID).
			Update("saldo_posterior", cuenta.Saldo).Error; err != nil {
			return err
		}
		nuevo.SaldoPosterior = &cuenta.Saldo

		pago = &nuevo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pago, nil
}

// aplicarACuotas recorre las cuotas pendientes desde la cuota de inicio (o la
// primera) y reparte el monto: a cada cuota se le aplica como máximo su saldo
// pendiente, el excedente pasa a la siguiente y lo que sobra después de la
// última queda sin aplicar.
func aplicarACuotas(tx *gorm.DB, cuenta *models.CuentaCorriente, pago *models.Pago, plan *models.PlanPago, inicio *models.CuotaPlan, params ParamsPago) error {
	q := tx.Preload("Aplicaciones").
		Where("plan_id = ? AND estado = ?", plan.ID, models.CuotaPendiente).
		Order("numero asc")
	if inicio != nil {
		q = q.Where("numero >= ?", inicio.Numero)
	}

	var pendientes []models.CuotaPlan
	if err := q.Find(&pendientes).Error; err != nil {
		return err
	}

	restante := params.Monto

	for i := range pendientes {
		cuota := &pendientes[i]

		if restante <= 0 {
			break
		}

		saldoCuota := cuota.SaldoPendiente()
		if saldoCuota <= 0 {
			// Cuota ya cubierta por pagos anteriores pero sin marcar
			if err := marcarCuotaPagada(tx, cuota); err != nil {
				return err
			}
			continue
		}

		aplicar := restante
		if saldoCuota < aplicar {
			aplicar = saldoCuota
		}

		aplicacion := models.PagoCuota{
			PagoID:        pago.ID,
			CuotaID:       cuota.ID,
			MontoAplicado: aplicar,
		}
		if err := tx.Create(&aplicacion).Error; err != nil {
			return err
		}
		cuota.Aplicaciones = append(cuota.Aplicaciones, aplicacion)

		base := fmt.Sprintf("Pago cuota %d", cuota.Numero)
		if plan.CantidadCuotas == 1 {
			base = "Pago único"
		}
		if err := crearMovimientoDeCobro(tx, cuenta, pago, base, aplicar, params); err != nil {
			return err
		}

		if cuota.SaldoPendiente() <= 0 {
			if err := marcarCuotaPagada(tx, cuota); err != nil {
				return err
			}
		}

		restante -= aplicar
	}

	// El recálculo de saldo lo hace el caller, una sola vez
	_, err := VerificarFinalizacion(tx, plan)
	return err
}

func marcarCuotaPagada(tx *gorm.DB, cuota *models.CuotaPlan) error {
	if cuota.Estado == models.CuotaPagada {
		return nil
	}
	cuota.Estado = models.CuotaPagada
	return tx.Model(&models.CuotaPlan{}).
		Where("id = ?", cuota.ID).
		Update("estado", models.CuotaPagada).Error
}

// crearMovimientoDeCobro asienta el haber de una aplicación (o de un pago
// directo al saldo) con la forma de pago y los datos de cheque en el texto.
func crearMovimientoDeCobro(tx *gorm.DB, cuenta *models.CuentaCorriente, pago *models.Pago, base string, monto float64, params ParamsPago) error {
	forma := "Efectivo"
	if params.FormaPago == models.FormaCheque {
		forma = fmt.Sprintf("Cheque %s N° %s", pago.Banco, pago.NumeroCheque)
	}

	descripcion := fmt.Sprintf("%s (%s)", base, forma)
	if pago.Observaciones != "" {
		descripcion = fmt.Sprintf("%s – %s", descripcion, pago.Observaciones)
	}

	mov := models.MovimientoCuenta{
		CuentaID:    cuenta.ID,
		Fecha:       time.Now(),
		Descripcion: descripcion,
		Tipo:        models.MovHaber,
		Monto:       monto,
		Origen:      models.OrigenPago,
	}
	return tx.Create(&mov).Error
}

// crearPlanSintetico arma un plan de pago único de una cuota, sin débito
// inicial propio: solo da estructura para registrar la aplicación.
func crearPlanSintetico(tx *gorm.DB, cuenta *models.CuentaCorriente, monto float64) (*models.PlanPago, error) {
	plan := models.PlanPago{
		CuentaID:        cuenta.ID,
		Descripcion:     "Pago único",
		TipoPlan:        models.PlanUnico,
		MontoFinanciado: monto,
		CantidadCuotas:  1,
		MontoCuota:      monto,
		FechaInicio:     time.Now(),
		Moneda:          models.MonedaARS,
		Estado:          models.PlanActivo,
	}
	if err := tx.Create(&plan).Error; err != nil {
		return nil, err
	}

	cuota := models.CuotaPlan{
		PlanID:      plan.ID,
		Numero:      1,
		Vencimiento: plan.FechaInicio,
		Monto:       monto,
		Estado:      models.CuotaPendiente,
	}
	if err := tx.Create(&cuota).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// siguienteNumeroRecibo incrementa el contador del año con un UPDATE atómico
// y devuelve el número formateado RC-<año>-<NNNNNN>. En Postgres el UPDATE
// serializa a los escritores concurrentes sobre la misma fila; el índice
// único de numero_recibo detecta cualquier carrera que se escape.
func siguienteNumeroRecibo(tx *gorm.DB, anio int) (string, error) {
	// Fila del año, creada perezosamente; el conflicto lo gana el primero
	fila := models.ReciboContador{Anio: anio}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fila).Error; err != nil {
		return "", err
	}

	res := tx.Model(&models.ReciboContador{}).
		Where("anio = ?", anio).
		Update("ultimo_numero", gorm.Expr("ultimo_numero + 1"))
	if res.Error != nil {
		return "", res.Error
	}

	var contador models.ReciboContador
	if err := tx.Where("anio = ?", anio).First(&contador).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("RC-%d-%06d", anio, contador.UltimoNumero), nil
}

func esViolacionDeUnicidad(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

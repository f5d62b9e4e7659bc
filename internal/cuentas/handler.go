package cuentas

import (
	"errors"
	"log"
	"strings"
	"time"

	"concesionaria-backend/internal/auth"
	"concesionaria-backend/internal/bitacora"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response
// -------------------------

type CrearCuentaRequest struct {
	ClienteID uint  `json:"cliente_id"`
	VentaID   *uint `json:"venta_id"`
}

type CuentaResponse struct {
	ID        uint    `json:"id"`
	ClienteID uint    `json:"cliente_id"`
	Cliente   string  `json:"cliente"`
	VentaID   *uint   `json:"venta_id"`
	Saldo     float64 `json:"saldo"`
	Estado    string  `json:"estado"`
	CreatedAt string  `json:"created_at"`
}

type MovimientoResponse struct {
	ID          uint    `json:"id"`
	Fecha       string  `json:"fecha"`
	Descripcion string  `json:"descripcion"`
	Tipo        string  `json:"tipo"`
	Monto       float64 `json:"monto"`
	Origen      string  `json:"origen"`
	VehiculoID  *uint   `json:"vehiculo_id,omitempty"`
}

type CuotaResponse struct {
	ID          uint    `json:"id"`
	Numero      uint    `json:"numero"`
	Vencimiento string  `json:"vencimiento"`
	Monto       float64 `json:"monto"`
	Estado      string  `json:"estado"`
	TotalPagado float64 `json:"total_pagado"`
	Saldo       float64 `json:"saldo"`
	Vencida     bool    `json:"vencida"`
	Mora        float64 `json:"mora"`
}

type RegistrarMovimientoRequest struct {
	Tipo        string  `json:"tipo"`   // "deuda" o "pago"
	Origen      string  `json:"origen"` // "manual" (defecto), "permuta" o "ajuste"
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
	VehiculoID  *uint   `json:"vehiculo_id"`
}

type AlertaCuotasResponse struct {
	CuentaID       uint    `json:"cuenta_id"`
	Cliente        string  `json:"cliente"`
	CuotasVencidas int64   `json:"cuotas_vencidas"`
	MontoVencido   float64 `json:"monto_vencido"`
}

// mapError traduce los errores de negocio del motor a respuestas HTTP.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrMontoInvalido),
		errors.Is(err, ErrPlanInvalido),
		errors.Is(err, ErrFormaPagoFaltante),
		errors.Is(err, ErrDatosChequeFaltantes),
		errors.Is(err, ErrSaldoExcedido):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCuotaAjena):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrCuentaConSaldo),
		errors.Is(err, ErrCuentaCerrada),
		errors.Is(err, ErrPlanConPagos),
		errors.Is(err, ErrPagoDuplicado):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrModificacionConcurrente):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Registro no encontrado")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Error inesperado")
	}
}

func cuentaToResponse(cuenta *models.CuentaCorriente) CuentaResponse {
	return CuentaResponse{
		ID:        cuenta.ID,
		ClienteID: cuenta.ClienteID,
		Cliente:   cuenta.Cliente.NombreCompleto,
		VentaID:   cuenta.VentaID,
		Saldo:     cuenta.Saldo,
		Estado:    string(cuenta.Estado),
		CreatedAt: cuenta.CreatedAt.Format(time.RFC3339),
	}
}

func registrarBitacora(c *fiber.Ctx, cuentaID *uint, accion, detalle string, datos any) {
	usuarioID, nombre, err := auth.UsuarioActual(c)
	if err != nil {
		return
	}
	if logErr := bitacora.Registrar(bitacora.Entrada{
		CuentaID:      cuentaID,
		UsuarioID:     usuarioID,
		UsuarioNombre: nombre,
		Accion:        accion,
		Detalle:       detalle,
		Datos:         datos,
	}); logErr != nil {
		log.Printf("No se pudo escribir la bitácora: %v", logErr)
	}
}

// -------------------------
// Cuentas
// -------------------------

// POST /api/cuentas
func CrearCuentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearCuentaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		var cliente models.Cliente
		if err := database.DB.First(&cliente, "id = ?", body.ClienteID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
		}

		// Una cuenta por venta; sin venta, se reutiliza la abierta del cliente
		var cuenta models.CuentaCorriente
		q := database.DB.Where("cliente_id = ?", cliente.ID)
		if body.VentaID != nil {
			q = q.Where("venta_id = ?", *body.VentaID)
		} else {
			q = q.Where("venta_id IS NULL")
		}

		err := q.First(&cuenta).Error
		if err == gorm.ErrRecordNotFound {
			cuenta = models.CuentaCorriente{
				ClienteID: cliente.ID,
				VentaID:   body.VentaID,
				Estado:    models.CuentaAlDia,
			}
			if err := database.DB.Create(&cuenta).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la cuenta")
			}
			registrarBitacora(c, &cuenta.ID, "crear_cuenta", "Cuenta corriente creada", fiber.Map{
				"cliente_id": cliente.ID,
				"venta_id":   body.VentaID,
			})
		} else if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo consultar la cuenta")
		}

		cuenta.Cliente = cliente
		return c.Status(fiber.StatusCreated).JSON(cuentaToResponse(&cuenta))
	}
}

// GET /api/cuentas  (excluye cerradas; con ?todas=true las incluye)
func ListarCuentasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Cliente").Order("created_at desc")
		if c.Query("todas") != "true" {
			dbq = dbq.Where("estado <> ?", models.CuentaCerrada)
		}

		var cuentas []models.CuentaCorriente
		if err := dbq.Find(&cuentas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las cuentas")
		}

		resp := make([]CuentaResponse, 0, len(cuentas))
		for i := range cuentas {
			resp = append(resp, cuentaToResponse(&cuentas[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/cuentas/alertas - cuentas con cuotas vencidas
func AlertasCuotasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hoy := time.Now()

		var alertas []AlertaCuotasResponse
		err := database.DB.Model(&models.CuotaPlan{}).
			Select("cuenta_corrientes.id as cuenta_id, clientes.nombre_completo as cliente, COUNT(cuota_plans.id) as cuotas_vencidas, COALESCE(SUM(cuota_plans.monto), 0) as monto_vencido").
			Joins("JOIN plan_pagos ON plan_pagos.id = cuota_plans.plan_id").
			Joins("JOIN cuenta_corrientes ON cuenta_corrientes.id = plan_pagos.cuenta_id").
			Joins("JOIN clientes ON clientes.id = cuenta_corrientes.cliente_id").
			Where("cuota_plans.estado = ? AND cuota_plans.vencimiento < ?", models.CuotaPendiente, hoy).
			Where("cuenta_corrientes.estado IN ?", []models.EstadoCuenta{models.CuentaAlDia, models.CuentaEnDeuda}).
			Group("cuenta_corrientes.id, clientes.nombre_completo").
			Order("cuotas_vencidas desc").
			Scan(&alertas).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron calcular las alertas")
		}

		return c.JSON(alertas)
	}
}

// GET /api/cuentas/:id - detalle con movimientos, plan y cuotas
func DetalleCuentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.Preload("Cliente").First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		var movimientos []models.MovimientoCuenta
		database.DB.Where("cuenta_id = ?", cuenta.ID).Order("fecha desc, id desc").Find(&movimientos)

		movResp := make([]MovimientoResponse, 0, len(movimientos))
		totalPermuta := 0.0
		for _, m := range movimientos {
			movResp = append(movResp, MovimientoResponse{
				ID:          m.ID,
				Fecha:       m.Fecha.Format(time.RFC3339),
				Descripcion: m.Descripcion,
				Tipo:        string(m.Tipo),
				Monto:       m.Monto,
				Origen:      string(m.Origen),
				VehiculoID:  m.VehiculoID,
			})
			if m.Origen == models.OrigenPermuta {
				totalPermuta += m.Monto
			}
		}

		resp := fiber.Map{
			"cuenta":        cuentaToResponse(&cuenta),
			"movimientos":   movResp,
			"total_permuta": totalPermuta,
		}

		var plan models.PlanPago
		if err := database.DB.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err == nil {
			resp["plan"] = planToResponse(&plan)
			resp["cuotas"] = cuotasDePlan(&plan)
		}

		return c.JSON(resp)
	}
}

// POST /api/cuentas/:id/movimientos - deuda o pago manual
func RegistrarMovimientoManualHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		var body RegistrarMovimientoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Monto <= 0 {
			return mapError(ErrMontoInvalido)
		}
		descripcion := strings.TrimSpace(body.Descripcion)
		if descripcion == "" {
			return fiber.NewError(fiber.StatusBadRequest, "La descripción no puede estar vacía")
		}

		var tipo models.TipoMovimiento
		switch body.Tipo {
		case "deuda":
			tipo = models.MovDebe
		case "pago":
			tipo = models.MovHaber
		default:
			return fiber.NewError(fiber.StatusBadRequest, "tipo debe ser 'deuda' o 'pago'")
		}

		origen := models.OrigenManual
		switch body.Origen {
		case "", "manual":
		case "permuta":
			origen = models.OrigenPermuta
		case "ajuste":
			origen = models.OrigenAjuste
		default:
			return fiber.NewError(fiber.StatusBadRequest, "origen debe ser 'manual', 'permuta' o 'ajuste'")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return RegistrarMovimiento(tx, &cuenta, descripcion, tipo, body.Monto, origen, body.VehiculoID)
		})
		if err != nil {
			return mapError(err)
		}

		registrarBitacora(c, &cuenta.ID, "movimiento_manual", descripcion, fiber.Map{
			"tipo":   body.Tipo,
			"origen": origen,
			"monto":  body.Monto,
		})

		return c.JSON(fiber.Map{
			"saldo":  cuenta.Saldo,
			"estado": cuenta.Estado,
		})
	}
}

// POST /api/cuentas/:id/cerrar
func CerrarCuentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return CerrarCuenta(tx, &cuenta)
		})
		if err != nil {
			return mapError(err)
		}

		registrarBitacora(c, &cuenta.ID, "cerrar_cuenta", "Cuenta cerrada", nil)

		return c.JSON(fiber.Map{"estado": cuenta.Estado})
	}
}

// DELETE /api/cuentas/:id - teardown completo (cuenta, plan, movimientos, pagos)
func EliminarCuentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var plan models.PlanPago
			if err := tx.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err == nil {
				if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.CuotaPlan{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&plan).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("cuenta_id = ?", cuenta.ID).Delete(&models.MovimientoCuenta{}).Error; err != nil {
				return err
			}
			if err := tx.Where("cuenta_id = ?", cuenta.ID).Delete(&models.Pago{}).Error; err != nil {
				return err
			}
			return tx.Delete(&cuenta).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la cuenta")
		}

		registrarBitacora(c, nil, "eliminar_cuenta", "Cuenta corriente eliminada", fiber.Map{
			"cuenta_id": cuenta.ID,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/cuentas/:id/historial - financiación de cuentas cerradas
func HistorialFinanciacionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.Preload("Cliente").First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		if cuenta.Estado != models.CuentaCerrada {
			return fiber.NewError(fiber.StatusConflict, "El historial de financiación solo está disponible con la cuenta cerrada")
		}

		resp := fiber.Map{"cuenta": cuentaToResponse(&cuenta)}

		var plan models.PlanPago
		if err := database.DB.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err == nil {
			resp["plan"] = planToResponse(&plan)
			resp["cuotas"] = cuotasDePlan(&plan)
		}

		return c.JSON(resp)
	}
}

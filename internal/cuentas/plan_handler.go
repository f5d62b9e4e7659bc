package cuentas

import (
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CrearPlanRequest struct {
	Descripcion        string  `json:"descripcion"`
	TipoPlan           string  `json:"tipo_plan"`
	MontoFinanciado    float64 `json:"monto_financiado"`
	Anticipo           float64 `json:"anticipo"`
	CantidadCuotas     uint    `json:"cantidad_cuotas"`
	MontoCuota         float64 `json:"monto_cuota"`
	FechaInicio        string  `json:"fecha_inicio"` // YYYY-MM-DD
	InteresMoraMensual float64 `json:"interes_mora_mensual"`
	InteresDescripcion string  `json:"interes_descripcion"`
	Moneda             string  `json:"moneda"`
}

type PlanResponse struct {
	ID                 uint    `json:"id"`
	CuentaID           uint    `json:"cuenta_id"`
	Descripcion        string  `json:"descripcion"`
	TipoPlan           string  `json:"tipo_plan"`
	MontoFinanciado    float64 `json:"monto_financiado"`
	Anticipo           float64 `json:"anticipo"`
	CantidadCuotas     uint    `json:"cantidad_cuotas"`
	MontoCuota         float64 `json:"monto_cuota"`
	FechaInicio        string  `json:"fecha_inicio"`
	InteresMoraMensual float64 `json:"interes_mora_mensual"`
	InteresDescripcion string  `json:"interes_descripcion"`
	Moneda             string  `json:"moneda"`
	Estado             string  `json:"estado"`
}

func planToResponse(plan *models.PlanPago) PlanResponse {
	return PlanResponse{
		ID:                 plan.ID,
		CuentaID:           plan.CuentaID,
		Descripcion:        plan.Descripcion,
		TipoPlan:           string(plan.TipoPlan),
		MontoFinanciado:    plan.MontoFinanciado,
		Anticipo:           plan.Anticipo,
		CantidadCuotas:     plan.CantidadCuotas,
		MontoCuota:         plan.MontoCuota,
		FechaInicio:        plan.FechaInicio.Format("2006-01-02"),
		InteresMoraMensual: plan.InteresMoraMensual,
		InteresDescripcion: plan.InteresDescripcion,
		Moneda:             string(plan.Moneda),
		Estado:             string(plan.Estado),
	}
}

// cuotasDePlan arma la vista de cuotas con lo aplicado y la mora del día.
func cuotasDePlan(plan *models.PlanPago) []CuotaResponse {
	var cuotas []models.CuotaPlan
	database.DB.Preload("Aplicaciones").
		Where("plan_id = ?", plan.ID).
		Order("numero asc").
		Find(&cuotas)

	hoy := time.Now()
	resp := make([]CuotaResponse, 0, len(cuotas))
	for i := range cuotas {
		cuota := &cuotas[i]
		resp = append(resp, CuotaResponse{
			ID:          cuota.ID,
			Numero:      cuota.Numero,
			Vencimiento: cuota.Vencimiento.Format("2006-01-02"),
			Monto:       cuota.Monto,
			Estado:      string(cuota.Estado),
			TotalPagado: cuota.TotalAplicado(),
			Saldo:       cuota.SaldoPendiente(),
			Vencida:     cuota.EstaVencida(hoy),
			Mora:        CalcularMora(cuota, plan, hoy),
		})
	}
	return resp
}

// advertenciasComerciales compara el plan pedido contra la regla del color del
// cliente. Solo advierte, nunca bloquea: la decisión final es del vendedor.
func advertenciasComerciales(cuenta *models.CuentaCorriente, params *ParamsPlan) []string {
	var regla models.ReglaComercial
	err := database.DB.Where("color_cliente = ?", cuenta.Cliente.CumplimientoPago).First(&regla).Error
	if err != nil {
		return nil
	}

	var avisos []string
	if !regla.PermiteFinanciar {
		avisos = append(avisos, "La regla comercial no recomienda financiar a este cliente")
	}
	if regla.MaxCuotas > 0 && params.CantidadCuotas > regla.MaxCuotas {
		avisos = append(avisos, "La cantidad de cuotas supera el máximo recomendado para este cliente")
	}
	if regla.AnticipoMinimoPct > 0 && params.MontoFinanciado > 0 {
		minimo := params.MontoFinanciado * float64(regla.AnticipoMinimoPct) / 100
		if params.Anticipo < minimo {
			avisos = append(avisos, "El anticipo está por debajo del mínimo recomendado para este cliente")
		}
	}
	if params.TipoPlan == models.PlanCheques && !regla.AceptaCheques {
		avisos = append(avisos, "La regla comercial no recomienda aceptar cheques de este cliente")
	}
	return avisos
}

// POST /api/cuentas/:id/plan - alta o regeneración del plan
func CrearPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.Preload("Cliente").First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		var body CrearPlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		fechaInicio, err := time.Parse("2006-01-02", body.FechaInicio)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "fecha_inicio debe tener formato YYYY-MM-DD")
		}

		params := ParamsPlan{
			Descripcion:        body.Descripcion,
			TipoPlan:           models.TipoPlan(body.TipoPlan),
			MontoFinanciado:    body.MontoFinanciado,
			Anticipo:           body.Anticipo,
			CantidadCuotas:     body.CantidadCuotas,
			MontoCuota:         body.MontoCuota,
			FechaInicio:        fechaInicio,
			InteresMoraMensual: body.InteresMoraMensual,
			InteresDescripcion: body.InteresDescripcion,
			Moneda:             models.Moneda(body.Moneda),
		}

		avisos := advertenciasComerciales(&cuenta, &params)

		plan, err := CrearOReemplazarPlan(database.DB, cuenta.ID, params)
		if err != nil {
			return mapError(err)
		}

		registrarBitacora(c, &cuenta.ID, "crear_plan", "Plan de pago creado o regenerado", fiber.Map{
			"plan_id":          plan.ID,
			"tipo_plan":        plan.TipoPlan,
			"monto_financiado": plan.MontoFinanciado,
			"cantidad_cuotas":  plan.CantidadCuotas,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"plan":         planToResponse(plan),
			"cuotas":       cuotasDePlan(plan),
			"advertencias": avisos,
		})
	}
}

// GET /api/cuentas/:id/plan
func DetallePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var plan models.PlanPago
		if err := database.DB.Where("cuenta_id = ?", id).First(&plan).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "La cuenta no tiene plan de pago")
		}

		return c.JSON(fiber.Map{
			"plan":   planToResponse(&plan),
			"cuotas": cuotasDePlan(&plan),
		})
	}
}

// DELETE /api/cuentas/:id/plan
func EliminarPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		if err := EliminarPlan(database.DB, cuenta.ID); err != nil {
			return mapError(err)
		}

		registrarBitacora(c, &cuenta.ID, "eliminar_plan", "Plan de pago eliminado", nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

type EditarCuotaRequest struct {
	Vencimiento string `json:"vencimiento"` // YYYY-MM-DD
}

// PUT /api/cuotas/:id - solo el vencimiento, y solo mientras esté pendiente
func EditarCuotaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuota models.CuotaPlan
		if err := database.DB.First(&cuota, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuota no encontrada")
		}

		if cuota.Estado != models.CuotaPendiente {
			return fiber.NewError(fiber.StatusConflict, "Solo se puede editar una cuota pendiente")
		}

		var body EditarCuotaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		vencimiento, err := time.Parse("2006-01-02", body.Vencimiento)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "vencimiento debe tener formato YYYY-MM-DD")
		}

		err = database.DB.Model(&models.CuotaPlan{}).
			Where("id = ? AND estado = ?", cuota.ID, models.CuotaPendiente).
			Update("vencimiento", vencimiento).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la cuota")
		}

		var plan models.PlanPago
		if err := database.DB.First(&plan, "id = ?", cuota.PlanID).Error; err == nil {
			registrarBitacora(c, &plan.CuentaID, "editar_cuota", "Vencimiento de cuota modificado", fiber.Map{
				"cuota_id":    cuota.ID,
				"numero":      cuota.Numero,
				"vencimiento": body.Vencimiento,
			})
		}

		return c.JSON(fiber.Map{
			"id":          cuota.ID,
			"vencimiento": vencimiento.Format("2006-01-02"),
		})
	}
}

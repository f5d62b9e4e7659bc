package clientes

import (
	"strings"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ClienteRequest struct {
	NombreCompleto string `json:"nombre_completo"`
	Telefono       string `json:"telefono"`
	Email          string `json:"email"`
	DNICuit        string `json:"dni_cuit"`
	Direccion      string `json:"direccion"`
}

type ClienteResponse struct {
	ID               uint   `json:"id"`
	NombreCompleto   string `json:"nombre_completo"`
	Telefono         string `json:"telefono"`
	Email            string `json:"email"`
	DNICuit          string `json:"dni_cuit"`
	Direccion        string `json:"direccion"`
	Activo           bool   `json:"activo"`
	CumplimientoPago string `json:"cumplimiento_pago"`
}

func clienteToResponse(cl *models.Cliente) ClienteResponse {
	return ClienteResponse{
		ID:               cl.ID,
		NombreCompleto:   cl.NombreCompleto,
		Telefono:         cl.Telefono,
		Email:            cl.Email,
		DNICuit:          cl.DNICuit,
		Direccion:        cl.Direccion,
		Activo:           cl.Activo,
		CumplimientoPago: string(cl.CumplimientoPago),
	}
}

// POST /api/clientes
func CrearHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ClienteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		nombre := strings.TrimSpace(body.NombreCompleto)
		if nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre es obligatorio")
		}

		cliente := models.Cliente{
			NombreCompleto:   nombre,
			Telefono:         body.Telefono,
			Email:            strings.TrimSpace(strings.ToLower(body.Email)),
			DNICuit:          body.DNICuit,
			Direccion:        body.Direccion,
			Activo:           true,
			CumplimientoPago: models.CumplimientoVerde,
		}
		if err := database.DB.Create(&cliente).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el cliente")
		}

		return c.Status(fiber.StatusCreated).JSON(clienteToResponse(&cliente))
	}
}

// GET /api/clientes?q=...&inactivos=true
func ListarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Order("nombre_completo asc")
		if c.Query("inactivos") != "true" {
			dbq = dbq.Where("activo = ?", true)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			patron := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(nombre_completo) LIKE ? OR dni_cuit LIKE ?", patron, "%"+q+"%")
		}

		var clientes []models.Cliente
		if err := dbq.Find(&clientes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los clientes")
		}

		resp := make([]ClienteResponse, 0, len(clientes))
		for i := range clientes {
			resp = append(resp, clienteToResponse(&clientes[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/clientes/:id
func DetalleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cliente models.Cliente
		if err := database.DB.First(&cliente, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
		}

		var cuentas []models.CuentaCorriente
		database.DB.Where("cliente_id = ?", cliente.ID).Order("created_at desc").Find(&cuentas)

		resumen := make([]fiber.Map, 0, len(cuentas))
		for _, cta := range cuentas {
			resumen = append(resumen, fiber.Map{
				"id":     cta.ID,
				"saldo":  cta.Saldo,
				"estado": cta.Estado,
			})
		}

		return c.JSON(fiber.Map{
			"cliente": clienteToResponse(&cliente),
			"cuentas": resumen,
		})
	}
}

// PUT /api/clientes/:id
func ActualizarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cliente models.Cliente
		if err := database.DB.First(&cliente, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
		}

		var body ClienteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if nombre := strings.TrimSpace(body.NombreCompleto); nombre != "" {
			cliente.NombreCompleto = nombre
		}
		cliente.Telefono = body.Telefono
		cliente.Email = strings.TrimSpace(strings.ToLower(body.Email))
		cliente.DNICuit = body.DNICuit
		cliente.Direccion = body.Direccion

		if err := database.DB.Save(&cliente).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el cliente")
		}

		return c.JSON(clienteToResponse(&cliente))
	}
}

type CumplimientoRequest struct {
	CumplimientoPago string `json:"cumplimiento_pago"`
}

// PUT /api/clientes/:id/cumplimiento - cambia el color del semáforo de pago
func ActualizarCumplimientoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cliente models.Cliente
		if err := database.DB.First(&cliente, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
		}

		var body CumplimientoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		color := models.CumplimientoPago(body.CumplimientoPago)
		switch color {
		case models.CumplimientoVerde, models.CumplimientoAmarillo, models.CumplimientoRojo:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "cumplimiento_pago debe ser 'verde', 'amarillo' o 'rojo'")
		}

		if err := database.DB.Model(&cliente).Update("cumplimiento_pago", color).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el cumplimiento")
		}
		cliente.CumplimientoPago = color

		return c.JSON(clienteToResponse(&cliente))
	}
}

// DELETE /api/clientes/:id - baja lógica
func EliminarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cliente models.Cliente
		if err := database.DB.First(&cliente, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente no encontrado")
		}

		var abiertas int64
		database.DB.Model(&models.CuentaCorriente{}).
			Where("cliente_id = ? AND estado <> ?", cliente.ID, models.CuentaCerrada).
			Where("saldo > 0").
			Count(&abiertas)
		if abiertas > 0 {
			return fiber.NewError(fiber.StatusConflict, "El cliente tiene cuentas con saldo pendiente")
		}

		if err := database.DB.Model(&cliente).Update("activo", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo dar de baja el cliente")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Reglas comerciales
// -------------------------

type ReglaRequest struct {
	ColorCliente      string `json:"color_cliente"`
	PermiteFinanciar  *bool  `json:"permite_financiar"`
	AnticipoMinimoPct uint   `json:"anticipo_minimo_pct"`
	MaxCuotas         uint   `json:"max_cuotas"`
	AceptaCheques     *bool  `json:"acepta_cheques"`
	Observaciones     string `json:"observaciones"`
}

// GET /api/reglas-comerciales
func ListarReglasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reglas []models.ReglaComercial
		if err := database.DB.Order("color_cliente asc").Find(&reglas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las reglas")
		}
		return c.JSON(reglas)
	}
}

// PUT /api/reglas-comerciales - upsert por color
func GuardarReglaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReglaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		color := models.CumplimientoPago(body.ColorCliente)
		switch color {
		case models.CumplimientoVerde, models.CumplimientoAmarillo, models.CumplimientoRojo:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "color_cliente debe ser 'verde', 'amarillo' o 'rojo'")
		}

		var regla models.ReglaComercial
		err := database.DB.Where("color_cliente = ?", color).First(&regla).Error
		if err != nil {
			regla = models.ReglaComercial{ColorCliente: color, PermiteFinanciar: true, AceptaCheques: true}
		}

		if body.PermiteFinanciar != nil {
			regla.PermiteFinanciar = *body.PermiteFinanciar
		}
		if body.AceptaCheques != nil {
			regla.AceptaCheques = *body.AceptaCheques
		}
		regla.AnticipoMinimoPct = body.AnticipoMinimoPct
		regla.MaxCuotas = body.MaxCuotas
		regla.Observaciones = body.Observaciones

		if err := database.DB.Save(&regla).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la regla")
		}

		return c.JSON(regla)
	}
}

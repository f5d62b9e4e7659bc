package vehiculos

import (
	"strings"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type VehiculoRequest struct {
	Dominio       string  `json:"dominio"`
	Marca         string  `json:"marca"`
	Modelo        string  `json:"modelo"`
	Anio          uint    `json:"anio"`
	Precio        float64 `json:"precio"`
	Estado        string  `json:"estado"`
	Observaciones string  `json:"observaciones"`
}

// POST /api/vehiculos
func CrearHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VehiculoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		dominio := strings.ToUpper(strings.TrimSpace(body.Dominio))
		if dominio == "" || body.Marca == "" || body.Modelo == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Dominio, marca y modelo son obligatorios")
		}

		estado := models.EstadoVehiculo(body.Estado)
		if estado == "" {
			estado = models.VehiculoEnStock
		}
		if estado != models.VehiculoEnStock && estado != models.VehiculoPermuta {
			return fiber.NewError(fiber.StatusBadRequest, "estado debe ser 'stock' o 'permuta'")
		}

		vehiculo := models.Vehiculo{
			Dominio:       dominio,
			Marca:         body.Marca,
			Modelo:        body.Modelo,
			Anio:          body.Anio,
			Precio:        body.Precio,
			Estado:        estado,
			Observaciones: body.Observaciones,
		}
		if err := database.DB.Create(&vehiculo).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Ya existe un vehículo con ese dominio")
		}

		return c.Status(fiber.StatusCreated).JSON(vehiculo)
	}
}

// GET /api/vehiculos?estado=...&q=...
func ListarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Order("created_at desc")
		if estado := c.Query("estado"); estado != "" {
			dbq = dbq.Where("estado = ?", estado)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			patron := "%" + strings.ToUpper(q) + "%"
			dbq = dbq.Where("UPPER(dominio) LIKE ? OR UPPER(marca) LIKE ? OR UPPER(modelo) LIKE ?", patron, patron, patron)
		}

		var vehiculos []models.Vehiculo
		if err := dbq.Find(&vehiculos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los vehículos")
		}
		return c.JSON(vehiculos)
	}
}

// GET /api/vehiculos/:id
func DetalleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vehiculo models.Vehiculo
		if err := database.DB.First(&vehiculo, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vehículo no encontrado")
		}

		// Gastos imputados al vehículo (ingreso de permuta, arreglos)
		var gastos []models.MovimientoCuenta
		database.DB.Where("vehiculo_id = ?", vehiculo.ID).Order("fecha desc").Find(&gastos)

		return c.JSON(fiber.Map{
			"vehiculo": vehiculo,
			"gastos":   gastos,
		})
	}
}

// PUT /api/vehiculos/:id
func ActualizarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vehiculo models.Vehiculo
		if err := database.DB.First(&vehiculo, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vehículo no encontrado")
		}

		var body VehiculoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if dominio := strings.ToUpper(strings.TrimSpace(body.Dominio)); dominio != "" {
			vehiculo.Dominio = dominio
		}
		if body.Marca != "" {
			vehiculo.Marca = body.Marca
		}
		if body.Modelo != "" {
			vehiculo.Modelo = body.Modelo
		}
		if body.Anio != 0 {
			vehiculo.Anio = body.Anio
		}
		if body.Precio != 0 {
			vehiculo.Precio = body.Precio
		}
		vehiculo.Observaciones = body.Observaciones

		if err := database.DB.Save(&vehiculo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el vehículo")
		}

		return c.JSON(vehiculo)
	}
}

// DELETE /api/vehiculos/:id
func EliminarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vehiculo models.Vehiculo
		if err := database.DB.First(&vehiculo, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Vehículo no encontrado")
		}

		if vehiculo.Estado == models.VehiculoVendido {
			return fiber.NewError(fiber.StatusConflict, "No se puede eliminar un vehículo vendido")
		}

		var ventas int64
		database.DB.Model(&models.Venta{}).Where("vehiculo_id = ?", vehiculo.ID).Count(&ventas)
		if ventas > 0 {
			return fiber.NewError(fiber.StatusConflict, "El vehículo tiene ventas asociadas")
		}

		if err := database.DB.Delete(&vehiculo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el vehículo")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

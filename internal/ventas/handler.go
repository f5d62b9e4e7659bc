package ventas

import (
	"errors"
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CrearVentaRequest struct {
	VehiculoID    *uint    `json:"vehiculo_id"`
	ClienteID     *uint    `json:"cliente_id"`
	PrecioVenta   *float64 `json:"precio_venta"`
	FechaVenta    string   `json:"fecha_venta"` // YYYY-MM-DD, vacío = hoy
	Observaciones string   `json:"observaciones"`
}

type VentaResponse struct {
	ID            uint     `json:"id"`
	VehiculoID    *uint    `json:"vehiculo_id"`
	Vehiculo      string   `json:"vehiculo,omitempty"`
	ClienteID     *uint    `json:"cliente_id"`
	Cliente       string   `json:"cliente,omitempty"`
	Estado        string   `json:"estado"`
	FechaVenta    string   `json:"fecha_venta"`
	PrecioVenta   *float64 `json:"precio_venta"`
	Observaciones string   `json:"observaciones,omitempty"`
}

func ventaToResponse(v *models.Venta) VentaResponse {
	resp := VentaResponse{
		ID:            v.ID,
		VehiculoID:    v.VehiculoID,
		ClienteID:     v.ClienteID,
		Estado:        string(v.Estado),
		FechaVenta:    v.FechaVenta.Format("2006-01-02"),
		PrecioVenta:   v.PrecioVenta,
		Observaciones: v.Observaciones,
	}
	if v.Vehiculo != nil {
		resp.Vehiculo = v.Vehiculo.Marca + " " + v.Vehiculo.Modelo + " (" + v.Vehiculo.Dominio + ")"
	}
	if v.Cliente != nil {
		resp.Cliente = v.Cliente.NombreCompleto
	}
	return resp
}

// POST /api/ventas
func CrearVentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearVentaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		fecha := time.Now()
		if body.FechaVenta != "" {
			parsed, err := time.Parse("2006-01-02", body.FechaVenta)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "fecha_venta debe tener formato YYYY-MM-DD")
			}
			fecha = parsed
		}

		venta := models.Venta{
			VehiculoID:    body.VehiculoID,
			ClienteID:     body.ClienteID,
			Estado:        models.VentaPendiente,
			FechaVenta:    fecha,
			PrecioVenta:   body.PrecioVenta,
			Observaciones: body.Observaciones,
		}
		if err := CrearVenta(database.DB, &venta); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Vehículo no encontrado")
			case errors.Is(err, ErrVentaActiva):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la venta")
			}
		}

		return c.Status(fiber.StatusCreated).JSON(ventaToResponse(&venta))
	}
}

// GET /api/ventas?estado=...
func ListarVentasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Vehiculo").Preload("Cliente").Order("fecha_venta desc, id desc")
		if estado := c.Query("estado"); estado != "" {
			dbq = dbq.Where("estado = ?", estado)
		}

		var ventas []models.Venta
		if err := dbq.Find(&ventas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}

		resp := make([]VentaResponse, 0, len(ventas))
		for i := range ventas {
			resp = append(resp, ventaToResponse(&ventas[i]))
		}
		return c.JSON(resp)
	}
}

type AdjudicarRequest struct {
	ClienteID uint `json:"cliente_id"`
}

// PUT /api/ventas/:id/cliente
func AdjudicarClienteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "ID de venta inválido")
		}

		var body AdjudicarRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		venta, err := AdjudicarCliente(database.DB, uint(id), body.ClienteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Venta o cliente no encontrado")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo adjudicar el cliente")
		}

		return c.JSON(ventaToResponse(venta))
	}
}

// POST /api/ventas/:id/confirmar
func ConfirmarVentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "ID de venta inválido")
		}

		venta, cuenta, err := Confirmar(database.DB, uint(id))
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
			case errors.Is(err, ErrVentaIncompleta), errors.Is(err, ErrVentaNoPendiente):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo confirmar la venta")
			}
		}

		return c.JSON(fiber.Map{
			"venta":     ventaToResponse(venta),
			"cuenta_id": cuenta.ID,
		})
	}
}

// POST /api/ventas/:id/revertir
func RevertirVentaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "ID de venta inválido")
		}

		venta, err := Revertir(database.DB, uint(id))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
			}
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		return c.JSON(ventaToResponse(venta))
	}
}

package deudas

import (
	"strings"
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CrearDeudaRequest struct {
	Proveedor   string  `json:"proveedor"`
	Descripcion string  `json:"descripcion"`
	VehiculoID  *uint   `json:"vehiculo_id"`
	Monto       float64 `json:"monto"`
	Fecha       string  `json:"fecha"` // YYYY-MM-DD, vacío = hoy
}

type DeudaResponse struct {
	ID          uint    `json:"id"`
	Proveedor   string  `json:"proveedor"`
	Descripcion string  `json:"descripcion"`
	VehiculoID  *uint   `json:"vehiculo_id"`
	Monto       float64 `json:"monto"`
	Pagado      float64 `json:"pagado"`
	Restante    float64 `json:"restante"`
	Fecha       string  `json:"fecha"`
	Estado      string  `json:"estado"`
}

func deudaToResponse(d *models.DeudaProveedor) DeudaResponse {
	pagado := 0.0
	for _, p := range d.Pagos {
		pagado += p.Monto
	}
	restante := d.Monto - pagado
	if restante < 0 {
		restante = 0
	}
	return DeudaResponse{
		ID:          d.ID,
		Proveedor:   d.Proveedor,
		Descripcion: d.Descripcion,
		VehiculoID:  d.VehiculoID,
		Monto:       d.Monto,
		Pagado:      pagado,
		Restante:    restante,
		Fecha:       d.Fecha.Format("2006-01-02"),
		Estado:      string(d.Estado),
	}
}

// POST /api/deudas-proveedores
func CrearHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearDeudaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if strings.TrimSpace(body.Proveedor) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El proveedor es obligatorio")
		}
		if body.Monto <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
		}

		fecha := time.Now()
		if body.Fecha != "" {
			parsed, err := time.Parse("2006-01-02", body.Fecha)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "fecha debe tener formato YYYY-MM-DD")
			}
			fecha = parsed
		}

		deuda := models.DeudaProveedor{
			Proveedor:   strings.TrimSpace(body.Proveedor),
			Descripcion: body.Descripcion,
			VehiculoID:  body.VehiculoID,
			Monto:       body.Monto,
			Fecha:       fecha,
			Estado:      models.DeudaPendiente,
		}
		if err := database.DB.Create(&deuda).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la deuda")
		}

		return c.Status(fiber.StatusCreated).JSON(deudaToResponse(&deuda))
	}
}

// GET /api/deudas-proveedores?estado=...&q=...
func ListarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Pagos").Order("fecha desc, id desc")
		if estado := c.Query("estado"); estado != "" {
			dbq = dbq.Where("estado = ?", estado)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			patron := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(proveedor) LIKE ? OR LOWER(descripcion) LIKE ?", patron, patron)
		}

		var deudas []models.DeudaProveedor
		if err := dbq.Find(&deudas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las deudas")
		}

		resp := make([]DeudaResponse, 0, len(deudas))
		for i := range deudas {
			resp = append(resp, deudaToResponse(&deudas[i]))
		}
		return c.JSON(resp)
	}
}

type PagarDeudaRequest struct {
	Monto       float64 `json:"monto"`
	Fecha       string  `json:"fecha"`
	Descripcion string  `json:"descripcion"`
}

// POST /api/deudas-proveedores/:id/pagos
func PagarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var body PagarDeudaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Monto <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El monto debe ser mayor a cero")
		}

		fecha := time.Now()
		if body.Fecha != "" {
			parsed, err := time.Parse("2006-01-02", body.Fecha)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "fecha debe tener formato YYYY-MM-DD")
			}
			fecha = parsed
		}

		var deuda models.DeudaProveedor
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := database.BloqueoFila(tx).Preload("Pagos").First(&deuda, "id = ?", id).Error; err != nil {
				return err
			}

			pagado := 0.0
			for _, p := range deuda.Pagos {
				pagado += p.Monto
			}
			if body.Monto > deuda.Monto-pagado {
				return fiber.NewError(fiber.StatusBadRequest, "El pago supera lo adeudado")
			}

			pago := models.PagoProveedor{
				DeudaID:     deuda.ID,
				Monto:       body.Monto,
				Fecha:       fecha,
				Descripcion: body.Descripcion,
			}
			if err := tx.Create(&pago).Error; err != nil {
				return err
			}
			deuda.Pagos = append(deuda.Pagos, pago)

			if pagado+body.Monto >= deuda.Monto {
				deuda.Estado = models.DeudaPagada
				return tx.Model(&deuda).Update("estado", models.DeudaPagada).Error
			}
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "Deuda no encontrada")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar el pago")
		}

		return c.Status(fiber.StatusCreated).JSON(deudaToResponse(&deuda))
	}
}

// DELETE /api/deudas-proveedores/:id
func EliminarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var deuda models.DeudaProveedor
		if err := database.DB.Preload("Pagos").First(&deuda, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Deuda no encontrada")
		}

		if len(deuda.Pagos) > 0 {
			return fiber.NewError(fiber.StatusConflict, "La deuda tiene pagos registrados")
		}

		if err := database.DB.Delete(&deuda).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la deuda")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

type DeudaCombinada struct {
	Tipo        string  `json:"tipo"` // "cliente" o "proveedor"
	ID          uint    `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	Monto       float64 `json:"monto"`
}

// GET /api/deudas?q=... - vista combinada: cuentas de clientes con saldo y
// deudas de proveedores con resto pendiente
func ListarCombinadasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.ToLower(strings.TrimSpace(c.Query("q")))

		var resultado []DeudaCombinada

		var cuentasConSaldo []models.CuentaCorriente
		dbq := database.DB.Preload("Cliente").
			Where("saldo > 0 AND estado <> ?", models.CuentaCerrada)
		if err := dbq.Find(&cuentasConSaldo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las deudas")
		}
		for _, cta := range cuentasConSaldo {
			if q != "" && !strings.Contains(strings.ToLower(cta.Cliente.NombreCompleto), q) {
				continue
			}
			resultado = append(resultado, DeudaCombinada{
				Tipo:        "cliente",
				ID:          cta.ID,
				Nombre:      cta.Cliente.NombreCompleto,
				Descripcion: "Cuenta corriente",
				Monto:       cta.Saldo,
			})
		}

		var deudas []models.DeudaProveedor
		if err := database.DB.Preload("Pagos").Where("estado = ?", models.DeudaPendiente).Find(&deudas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las deudas")
		}
		for i := range deudas {
			d := deudaToResponse(&deudas[i])
			if d.Restante <= 0 {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(d.Proveedor), q) {
				continue
			}
			resultado = append(resultado, DeudaCombinada{
				Tipo:        "proveedor",
				ID:          d.ID,
				Nombre:      d.Proveedor,
				Descripcion: d.Descripcion,
				Monto:       d.Restante,
			})
		}

		if resultado == nil {
			resultado = []DeudaCombinada{}
		}
		return c.JSON(resultado)
	}
}

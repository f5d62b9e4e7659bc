package cuentas

import (
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RegistrarPagoRequest struct {
	FormaPago         string  `json:"forma_pago"` // "efectivo" o "cheque"
	Monto             float64 `json:"monto"`
	CuotaID           *uint   `json:"cuota_id"`
	Banco             string  `json:"banco"`
	NumeroCheque      string  `json:"numero_cheque"`
	Observaciones     string  `json:"observaciones"`
	ClaveIdempotencia string  `json:"clave_idempotencia"`
}

type PagoResponse struct {
	ID             uint              `json:"id"`
	CuentaID       uint              `json:"cuenta_id"`
	NumeroRecibo   string            `json:"numero_recibo"`
	Fecha          string            `json:"fecha"`
	FormaPago      string            `json:"forma_pago"`
	Banco          string            `json:"banco,omitempty"`
	NumeroCheque   string            `json:"numero_cheque,omitempty"`
	MontoTotal     float64           `json:"monto_total"`
	Observaciones  string            `json:"observaciones,omitempty"`
	SaldoAnterior  *float64          `json:"saldo_anterior"`
	SaldoPosterior *float64          `json:"saldo_posterior"`
	Aplicaciones   []AplicacionVista `json:"aplicaciones"`
}

type AplicacionVista struct {
	CuotaID       uint    `json:"cuota_id"`
	Numero        uint    `json:"numero"`
	MontoAplicado float64 `json:"monto_aplicado"`
}

func pagoToResponse(pago *models.Pago) PagoResponse {
	resp := PagoResponse{
		ID:             pago.ID,
		CuentaID:       pago.CuentaID,
		NumeroRecibo:   pago.NumeroRecibo,
		Fecha:          pago.Fecha.Format(time.RFC3339),
		FormaPago:      string(pago.FormaPago),
		Banco:          pago.Banco,
		NumeroCheque:   pago.NumeroCheque,
		MontoTotal:     pago.MontoTotal,
		Observaciones:  pago.Observaciones,
		SaldoAnterior:  pago.SaldoAnterior,
		SaldoPosterior: pago.SaldoPosterior,
		Aplicaciones:   make([]AplicacionVista, 0, len(pago.Aplicaciones)),
	}
	for _, a := range pago.Aplicaciones {
		resp.Aplicaciones = append(resp.Aplicaciones, AplicacionVista{
			CuotaID:       a.CuotaID,
			Numero:        a.Cuota.Numero,
			MontoAplicado: a.MontoAplicado,
		})
	}
	return resp
}

// POST /api/cuentas/:id/pagos
func RegistrarPagoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		var body RegistrarPagoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		params := ParamsPago{
			FormaPago:         models.FormaPago(body.FormaPago),
			Monto:             body.Monto,
			CuotaID:           body.CuotaID,
			Banco:             body.Banco,
			NumeroCheque:      body.NumeroCheque,
			Observaciones:     body.Observaciones,
			ClaveIdempotencia: body.ClaveIdempotencia,
		}

		pago, err := RegistrarPagoCuenta(database.DB, cuenta.ID, params)
		if err != nil {
			return mapError(err)
		}

		registrarBitacora(c, &cuenta.ID, "registrar_pago", "Pago registrado", fiber.Map{
			"pago_id":       pago.ID,
			"numero_recibo": pago.NumeroRecibo,
			"forma_pago":    pago.FormaPago,
			"monto":         pago.MontoTotal,
		})

		database.DB.Preload("Aplicaciones.Cuota").First(pago, "id = ?", pago.ID)

		return c.Status(fiber.StatusCreated).JSON(pagoToResponse(pago))
	}
}

// GET /api/cuentas/:id/pagos
func ListarPagosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cuenta models.CuentaCorriente
		if err := database.DB.First(&cuenta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
		}

		var pagos []models.Pago
		err := database.DB.Preload("Aplicaciones.Cuota").
			Where("cuenta_id = ?", cuenta.ID).
			Order("fecha desc, id desc").
			Find(&pagos).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los pagos")
		}

		resp := make([]PagoResponse, 0, len(pagos))
		for i := range pagos {
			resp = append(resp, pagoToResponse(&pagos[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/pagos/:id - recibo puntual, con el cliente para imprimir
func DetallePagoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var pago models.Pago
		err := database.DB.Preload("Aplicaciones.Cuota").
			Preload("Cuenta.Cliente").
			First(&pago, "id = ?", id).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Pago no encontrado")
		}

		return c.JSON(fiber.Map{
			"pago":    pagoToResponse(&pago),
			"cliente": pago.Cuenta.Cliente.NombreCompleto,
		})
	}
}

package bitacora

import (
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type EntradaResponse struct {
	ID            uint   `json:"id"`
	CuentaID      *uint  `json:"cuenta_id"`
	UsuarioID     uint   `json:"usuario_id"`
	UsuarioNombre string `json:"usuario_nombre"`
	Accion        string `json:"accion"`
	Detalle       string `json:"detalle"`
	Datos         string `json:"datos"`
	Fecha         string `json:"fecha"`
}

// GET /api/bitacora?cuenta_id=...&limite=...
func ListarHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limite := c.QueryInt("limite", 100)
		if limite <= 0 || limite > 500 {
			limite = 100
		}

		dbq := database.DB.Model(&models.BitacoraCuenta{}).Order("id desc").Limit(limite)

		if cuentaID := c.QueryInt("cuenta_id", 0); cuentaID > 0 {
			dbq = dbq.Where("cuenta_id = ?", cuentaID)
		}

		var entradas []models.BitacoraCuenta
		if err := dbq.Find(&entradas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo listar la bitácora")
		}

		resp := make([]EntradaResponse, 0, len(entradas))
		for _, e := range entradas {
			resp = append(resp, EntradaResponse{
				ID:            e.ID,
				CuentaID:      e.CuentaID,
				UsuarioID:     e.UsuarioID,
				UsuarioNombre: e.UsuarioNombre,
				Accion:        e.Accion,
				Detalle:       e.Detalle,
				Datos:         e.Datos,
				Fecha:         e.CreatedAt.Format(time.RFC3339),
			})
		}

		return c.JSON(resp)
	}
}

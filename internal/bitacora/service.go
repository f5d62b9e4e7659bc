package bitacora

import (
	"encoding/json"
	"fmt"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"
)

type Entrada struct {
	CuentaID      *uint
	UsuarioID     uint
	UsuarioNombre string
	Accion        string
	Detalle       string
	Datos         any
}

// Registrar escribe una entrada en la bitácora. Las fallas acá nunca deben
// voltear la operación principal: el caller las loguea y sigue.
func Registrar(e Entrada) error {
	// jsonb no acepta string vacío, siempre un JSON válido
	datosStr := "null"
	if e.Datos != nil {
		if b, err := json.Marshal(e.Datos); err == nil {
			datosStr = string(b)
		}
	}

	entrada := models.BitacoraCuenta{
		CuentaID:      e.CuentaID,
		UsuarioID:     e.UsuarioID,
		UsuarioNombre: e.UsuarioNombre,
		Accion:        e.Accion,
		Detalle:       e.Detalle,
		Datos:         datosStr,
	}

	if err := database.DB.Create(&entrada).Error; err != nil {
		return fmt.Errorf("no se pudo escribir la bitácora: %w", err)
	}
	return nil
}

package cuentas

import (
	"testing"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// abrirDB levanta una base SQLite en memoria con el esquema completo. Con una
// sola conexión en el pool, ':memory:' es siempre la misma base.
func abrirDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("no se pudo abrir la base en memoria: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("no se pudo obtener el pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("falló la migración: %v", err)
	}
	return db
}

func crearCuenta(t *testing.T, db *gorm.DB) *models.CuentaCorriente {
	t.Helper()

	cliente := models.Cliente{
		NombreCompleto:   "Juan Pérez",
		Activo:           true,
		CumplimientoPago: models.CumplimientoVerde,
	}
	if err := db.Create(&cliente).Error; err != nil {
		t.Fatalf("no se pudo crear el cliente: %v", err)
	}

	cuenta := models.CuentaCorriente{
		ClienteID: cliente.ID,
		Estado:    models.CuentaAlDia,
	}
	if err := db.Create(&cuenta).Error; err != nil {
		t.Fatalf("no se pudo crear la cuenta: %v", err)
	}
	cuenta.Cliente = cliente
	return &cuenta
}

func recargarCuenta(t *testing.T, db *gorm.DB, cuenta *models.CuentaCorriente) {
	t.Helper()
	if err := db.First(cuenta, "id = ?", cuenta.ID).Error; err != nil {
		t.Fatalf("no se pudo recargar la cuenta: %v", err)
	}
}

func deudaManual(t *testing.T, db *gorm.DB, cuenta *models.CuentaCorriente, monto float64) {
	t.Helper()
	err := db.Transaction(func(tx *gorm.DB) error {
		return RegistrarDeuda(tx, cuenta, "Deuda de prueba", monto, nil)
	})
	if err != nil {
		t.Fatalf("no se pudo registrar la deuda: %v", err)
	}
}

package database

import (
	"log"

	"concesionaria-backend/internal/config"
	"concesionaria-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("No se pudo conectar a la base de datos: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Error en AutoMigrate: %v", err)
	}

	log.Println("Conexión a la base de datos OK. Migración completada.")
}

// Migrate corre AutoMigrate sobre todos los modelos. Separado de Init para
// poder usarlo también contra la base en memoria de los tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Usuario{},
		&models.Cliente{},
		&models.ReglaComercial{},
		&models.Vehiculo{},
		&models.Venta{},
		&models.CuentaCorriente{},
		&models.MovimientoCuenta{},
		&models.PlanPago{},
		&models.CuotaPlan{},
		&models.Pago{},
		&models.PagoCuota{},
		&models.ReciboContador{},
		&models.DeudaProveedor{},
		&models.PagoProveedor{},
		&models.BitacoraCuenta{},
	)
}

// BloqueoFila agrega SELECT ... FOR UPDATE. SQLite (la base de los tests) no
// acepta esa sintaxis, ahí la transacción ya serializa los escritores.
func BloqueoFila(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

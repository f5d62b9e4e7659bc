package cuentas

import (
	"errors"
	"testing"

	"concesionaria-backend/internal/models"

	"gorm.io/gorm"
)

func TestRecalcularSaldoDerivaDeMovimientos(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 1000)
	if cuenta.Saldo != 1000 || cuenta.Estado != models.CuentaEnDeuda {
		t.Fatalf("esperaba saldo 1000 en deuda, tengo %v %v", cuenta.Saldo, cuenta.Estado)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return RegistrarPago(tx, cuenta, "Pago parcial", 300, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if cuenta.Saldo != 700 {
		t.Fatalf("esperaba saldo 700, tengo %v", cuenta.Saldo)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return RegistrarPago(tx, cuenta, "Pago final", 700, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if cuenta.Saldo != 0 || cuenta.Estado != models.CuentaAlDia {
		t.Fatalf("esperaba saldo 0 al día, tengo %v %v", cuenta.Saldo, cuenta.Estado)
	}
}

func TestRecalcularSaldoNuncaNegativo(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 500)

	// Créditos por encima de la deuda: el saldo queda clavado en cero
	err := db.Transaction(func(tx *gorm.DB) error {
		return RegistrarPago(tx, cuenta, "Pago de más", 800, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if cuenta.Saldo != 0 || cuenta.Estado != models.CuentaAlDia {
		t.Fatalf("esperaba saldo 0 al día, tengo %v %v", cuenta.Saldo, cuenta.Estado)
	}
}

func TestRecalcularSaldoAceptaTiposLegados(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	movs := []models.MovimientoCuenta{
		{CuentaID: cuenta.ID, Descripcion: "Deuda vieja", Tipo: models.MovDeuda, Monto: 1000, Origen: models.OrigenManual},
		{CuentaID: cuenta.ID, Descripcion: "Pago viejo", Tipo: models.MovPago, Monto: 400, Origen: models.OrigenManual},
		{CuentaID: cuenta.ID, Descripcion: "Deuda nueva", Tipo: models.MovDebe, Monto: 200, Origen: models.OrigenManual},
	}
	for i := range movs {
		if err := db.Create(&movs[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return RecalcularSaldo(tx, cuenta)
	}); err != nil {
		t.Fatal(err)
	}

	if cuenta.Saldo != 800 {
		t.Fatalf("esperaba saldo 800 mezclando tipos legados, tengo %v", cuenta.Saldo)
	}
}

func TestRecalcularSaldoEsIdempotente(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 1500)

	for i := 0; i < 3; i++ {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return RecalcularSaldo(tx, cuenta)
		}); err != nil {
			t.Fatal(err)
		}
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 1500 || cuenta.Estado != models.CuentaEnDeuda {
		t.Fatalf("el recálculo repetido cambió el resultado: %v %v", cuenta.Saldo, cuenta.Estado)
	}
}

func TestCerrarCuentaConSaldoRechaza(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 100)

	err := db.Transaction(func(tx *gorm.DB) error {
		return CerrarCuenta(tx, cuenta)
	})
	if !errors.Is(err, ErrCuentaConSaldo) {
		t.Fatalf("esperaba ErrCuentaConSaldo, tengo %v", err)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Estado == models.CuentaCerrada {
		t.Fatal("la cuenta no debería haberse cerrado con saldo")
	}
}

func TestCerrarCuentaSinSaldo(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return CerrarCuenta(tx, cuenta)
	})
	if err != nil {
		t.Fatal(err)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Estado != models.CuentaCerrada {
		t.Fatalf("esperaba cuenta cerrada, tengo %v", cuenta.Estado)
	}
}

func TestMovimientoConVehiculo(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	vehiculo := models.Vehiculo{Dominio: "AB123CD", Marca: "Ford", Modelo: "Fiesta", Anio: 2018, Estado: models.VehiculoPermuta}
	if err := db.Create(&vehiculo).Error; err != nil {
		t.Fatal(err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return RegistrarDeuda(tx, cuenta, "Gastos de ingreso permuta", 35000, &vehiculo.ID)
	})
	if err != nil {
		t.Fatal(err)
	}

	var mov models.MovimientoCuenta
	if err := db.Where("vehiculo_id = ?", vehiculo.ID).First(&mov).Error; err != nil {
		t.Fatalf("esperaba un movimiento imputado al vehículo: %v", err)
	}
	if mov.Monto != 35000 || mov.Tipo != models.MovDebe {
		t.Fatalf("movimiento inesperado: %+v", mov)
	}
}

func TestMovimientoDePermutaDescuentaDeuda(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 12000000)

	vehiculo := models.Vehiculo{Dominio: "AD789GH", Marca: "VW", Modelo: "Gol", Anio: 2015, Estado: models.VehiculoPermuta}
	if err := db.Create(&vehiculo).Error; err != nil {
		t.Fatal(err)
	}

	// El usado entregado como parte de pago entra como haber de permuta
	err := db.Transaction(func(tx *gorm.DB) error {
		return RegistrarMovimiento(tx, cuenta, "Entrega VW Gol en parte de pago", models.MovHaber, 4000000, models.OrigenPermuta, &vehiculo.ID)
	})
	if err != nil {
		t.Fatal(err)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 8000000 {
		t.Fatalf("esperaba saldo 8000000, tengo %v", cuenta.Saldo)
	}

	var mov models.MovimientoCuenta
	if err := db.Where("cuenta_id = ? AND origen = ?", cuenta.ID, models.OrigenPermuta).First(&mov).Error; err != nil {
		t.Fatal(err)
	}
	if mov.Tipo != models.MovHaber || mov.Monto != 4000000 {
		t.Fatalf("movimiento de permuta inesperado: %+v", mov)
	}
}

package ventas

import (
	"errors"
	"testing"
	"time"

	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("falló la migración: %v", err)
	}
	return db
}

func armarVenta(t *testing.T, db *gorm.DB) (*models.Venta, *models.Cliente, *models.Vehiculo) {
	t.Helper()

	cliente := models.Cliente{NombreCompleto: "Ana García", Activo: true, CumplimientoPago: models.CumplimientoVerde}
	if err := db.Create(&cliente).Error; err != nil {
		t.Fatal(err)
	}
	vehiculo := models.Vehiculo{Dominio: "AC456EF", Marca: "Toyota", Modelo: "Corolla", Anio: 2020, Precio: 15000000, Estado: models.VehiculoEnStock}
	if err := db.Create(&vehiculo).Error; err != nil {
		t.Fatal(err)
	}
	venta := models.Venta{
		VehiculoID: &vehiculo.ID,
		ClienteID:  &cliente.ID,
		Estado:     models.VentaPendiente,
		FechaVenta: time.Now(),
	}
	if err := db.Create(&venta).Error; err != nil {
		t.Fatal(err)
	}
	return &venta, &cliente, &vehiculo
}

func TestConfirmarVentaCreaCuentaYCongelaPrecio(t *testing.T) {
	db := abrirDB(t)
	venta, cliente, vehiculo := armarVenta(t, db)

	confirmada, cuenta, err := Confirmar(db, venta.ID)
	if err != nil {
		t.Fatal(err)
	}

	if confirmada.Estado != models.VentaConfirmada {
		t.Fatalf("esperaba venta confirmada, está %v", confirmada.Estado)
	}
	if confirmada.PrecioVenta == nil || *confirmada.PrecioVenta != 15000000 {
		t.Fatalf("el precio de lista debía congelarse en la venta: %v", confirmada.PrecioVenta)
	}

	var vehiculoFinal models.Vehiculo
	db.First(&vehiculoFinal, "id = ?", vehiculo.ID)
	if vehiculoFinal.Estado != models.VehiculoVendido {
		t.Fatalf("el vehículo debía quedar vendido, está %v", vehiculoFinal.Estado)
	}

	if cuenta.ClienteID != cliente.ID || cuenta.VentaID == nil || *cuenta.VentaID != venta.ID {
		t.Fatalf("cuenta mal asociada: %+v", cuenta)
	}
	if cuenta.Estado != models.CuentaAlDia || cuenta.Saldo != 0 {
		t.Fatalf("la cuenta nueva arranca al día sin saldo: %+v", cuenta)
	}
}

func TestConfirmarVentaEsIdempotenteSobreLaCuenta(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	// Confirmar de nuevo rechaza: ya no está pendiente
	if _, _, err := Confirmar(db, venta.ID); !errors.Is(err, ErrVentaNoPendiente) {
		t.Fatalf("esperaba ErrVentaNoPendiente, tengo %v", err)
	}

	var cuentas int64
	db.Model(&models.CuentaCorriente{}).Where("venta_id = ?", venta.ID).Count(&cuentas)
	if cuentas != 1 {
		t.Fatalf("esperaba una sola cuenta para la venta, tengo %d", cuentas)
	}
}

func TestConfirmarVentaSinClienteRechaza(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	if err := db.Model(venta).Update("cliente_id", nil).Error; err != nil {
		t.Fatal(err)
	}

	if _, _, err := Confirmar(db, venta.ID); !errors.Is(err, ErrVentaIncompleta) {
		t.Fatalf("esperaba ErrVentaIncompleta, tengo %v", err)
	}
}

func TestAdjudicarClienteSincronizaLaCuenta(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	otro := models.Cliente{NombreCompleto: "Carlos López", Activo: true, CumplimientoPago: models.CumplimientoVerde}
	if err := db.Create(&otro).Error; err != nil {
		t.Fatal(err)
	}

	actualizada, err := AdjudicarCliente(db, venta.ID, otro.ID)
	if err != nil {
		t.Fatal(err)
	}
	if actualizada.ClienteID == nil || *actualizada.ClienteID != otro.ID {
		t.Fatalf("la venta no cambió de cliente: %+v", actualizada.ClienteID)
	}

	var cuenta models.CuentaCorriente
	if err := db.Where("venta_id = ?", venta.ID).First(&cuenta).Error; err != nil {
		t.Fatal(err)
	}
	if cuenta.ClienteID != otro.ID {
		t.Fatalf("la cuenta debía seguir al cliente de la venta: %d", cuenta.ClienteID)
	}
}

func TestAdjudicarClienteLimpiaMovimientosHuerfanos(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	var cuenta models.CuentaCorriente
	if err := db.Where("venta_id = ?", venta.ID).First(&cuenta).Error; err != nil {
		t.Fatal(err)
	}
	mov := models.MovimientoCuenta{
		CuentaID:    cuenta.ID,
		Fecha:       time.Now(),
		Descripcion: "Seña operación caída",
		Tipo:        models.MovDebe,
		Monto:       500000,
		Origen:      models.OrigenManual,
	}
	if err := db.Create(&mov).Error; err != nil {
		t.Fatal(err)
	}

	nuevo := models.Cliente{NombreCompleto: "Titular Nuevo", Activo: true, CumplimientoPago: models.CumplimientoVerde}
	if err := db.Create(&nuevo).Error; err != nil {
		t.Fatal(err)
	}

	// Sin cobros registrados, el cambio de titular arranca la cuenta de cero
	if _, err := AdjudicarCliente(db, venta.ID, nuevo.ID); err != nil {
		t.Fatal(err)
	}

	var movimientos int64
	db.Model(&models.MovimientoCuenta{}).Where("cuenta_id = ?", cuenta.ID).Count(&movimientos)
	if movimientos != 0 {
		t.Fatalf("los movimientos huérfanos debían limpiarse, quedan %d", movimientos)
	}

	db.First(&cuenta, "id = ?", cuenta.ID)
	if cuenta.Saldo != 0 || cuenta.ClienteID != nuevo.ID {
		t.Fatalf("cuenta mal reiniciada: saldo=%v cliente=%d", cuenta.Saldo, cuenta.ClienteID)
	}
}

func TestAdjudicarClienteInactivoRechaza(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	inactivo := models.Cliente{NombreCompleto: "Baja Lógica", Activo: false}
	if err := db.Create(&inactivo).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := AdjudicarCliente(db, venta.ID, inactivo.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("esperaba ErrRecordNotFound para cliente inactivo, tengo %v", err)
	}
}

func TestRevertirVentaLimpiaLaCuentaVacia(t *testing.T) {
	db := abrirDB(t)
	venta, _, vehiculo := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	revertida, err := Revertir(db, venta.ID)
	if err != nil {
		t.Fatal(err)
	}
	if revertida.Estado != models.VentaRevertida {
		t.Fatalf("esperaba venta revertida, está %v", revertida.Estado)
	}

	var vehiculoFinal models.Vehiculo
	db.First(&vehiculoFinal, "id = ?", vehiculo.ID)
	if vehiculoFinal.Estado != models.VehiculoEnStock {
		t.Fatalf("el vehículo debía volver a stock, está %v", vehiculoFinal.Estado)
	}

	var cuentas int64
	db.Model(&models.CuentaCorriente{}).Where("venta_id = ?", venta.ID).Count(&cuentas)
	if cuentas != 0 {
		t.Fatal("la cuenta sin movimientos debía eliminarse con la reversión")
	}
}

func TestCrearVentaRechazaVehiculoConVentaEnCurso(t *testing.T) {
	db := abrirDB(t)
	_, cliente, vehiculo := armarVenta(t, db)

	segunda := models.Venta{
		VehiculoID: &vehiculo.ID,
		ClienteID:  &cliente.ID,
		Estado:     models.VentaPendiente,
		FechaVenta: time.Now(),
	}
	if err := CrearVenta(db, &segunda); !errors.Is(err, ErrVentaActiva) {
		t.Fatalf("esperaba ErrVentaActiva con una venta pendiente en curso, tengo %v", err)
	}
}

func TestReventaDespuesDeRevertir(t *testing.T) {
	db := abrirDB(t)
	venta, _, vehiculo := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := Revertir(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	// El vehículo volvió a stock: se puede vender de nuevo
	otro := models.Cliente{NombreCompleto: "Comprador Nuevo", Activo: true, CumplimientoPago: models.CumplimientoVerde}
	if err := db.Create(&otro).Error; err != nil {
		t.Fatal(err)
	}

	segunda := models.Venta{
		VehiculoID: &vehiculo.ID,
		ClienteID:  &otro.ID,
		Estado:     models.VentaPendiente,
		FechaVenta: time.Now(),
	}
	if err := CrearVenta(db, &segunda); err != nil {
		t.Fatalf("la reventa de un vehículo con venta revertida debe funcionar: %v", err)
	}

	confirmada, cuenta, err := Confirmar(db, segunda.ID)
	if err != nil {
		t.Fatal(err)
	}
	if confirmada.Estado != models.VentaConfirmada {
		t.Fatalf("esperaba la reventa confirmada, está %v", confirmada.Estado)
	}
	if cuenta.ClienteID != otro.ID {
		t.Fatalf("la cuenta de la reventa debía ser del nuevo comprador: %d", cuenta.ClienteID)
	}

	var vehiculoFinal models.Vehiculo
	db.First(&vehiculoFinal, "id = ?", vehiculo.ID)
	if vehiculoFinal.Estado != models.VehiculoVendido {
		t.Fatalf("el vehículo debía quedar vendido otra vez, está %v", vehiculoFinal.Estado)
	}

	// La venta revertida sigue como historial del vehículo
	var ventas int64
	db.Model(&models.Venta{}).Where("vehiculo_id = ?", vehiculo.ID).Count(&ventas)
	if ventas != 2 {
		t.Fatalf("esperaba las dos ventas en el historial, tengo %d", ventas)
	}
}

func TestRevertirVentaConMovimientosConservaLaCuenta(t *testing.T) {
	db := abrirDB(t)
	venta, _, _ := armarVenta(t, db)

	if _, _, err := Confirmar(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	var cuenta models.CuentaCorriente
	if err := db.Where("venta_id = ?", venta.ID).First(&cuenta).Error; err != nil {
		t.Fatal(err)
	}
	mov := models.MovimientoCuenta{
		CuentaID:    cuenta.ID,
		Fecha:       time.Now(),
		Descripcion: "Seña",
		Tipo:        models.MovDebe,
		Monto:       100000,
		Origen:      models.OrigenManual,
	}
	if err := db.Create(&mov).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := Revertir(db, venta.ID); err != nil {
		t.Fatal(err)
	}

	var cuentas int64
	db.Model(&models.CuentaCorriente{}).Where("venta_id = ?", venta.ID).Count(&cuentas)
	if cuentas != 1 {
		t.Fatal("la cuenta con historial no se elimina al revertir")
	}
}

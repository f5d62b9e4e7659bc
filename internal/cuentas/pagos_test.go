package cuentas

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"concesionaria-backend/internal/models"

	"gorm.io/gorm"
)

func pagoEfectivo(monto float64, cuotaID *uint) ParamsPago {
	return ParamsPago{
		FormaPago: models.FormaEfectivo,
		Monto:     monto,
		CuotaID:   cuotaID,
	}
}

func cuotaNumero(t *testing.T, db *gorm.DB, planID uint, numero uint) *models.CuotaPlan {
	t.Helper()
	var cuota models.CuotaPlan
	if err := db.Preload("Aplicaciones").
		Where("plan_id = ? AND numero = ?", planID, numero).
		First(&cuota).Error; err != nil {
		t.Fatalf("no encontré la cuota %d: %v", numero, err)
	}
	return &cuota
}

func TestPagoDirigidoCubreLaCuota(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}
	primera := cuotaNumero(t, db, plan.ID, 1)

	pago, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(40000, &primera.ID))
	if err != nil {
		t.Fatal(err)
	}

	primera = cuotaNumero(t, db, plan.ID, 1)
	if primera.Estado != models.CuotaPagada {
		t.Fatalf("la cuota 1 debía quedar pagada, está %v", primera.Estado)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 80000 {
		t.Fatalf("esperaba saldo 80000, tengo %v", cuenta.Saldo)
	}

	if pago.SaldoAnterior == nil || *pago.SaldoAnterior != 120000 {
		t.Fatalf("saldo anterior incorrecto: %v", pago.SaldoAnterior)
	}
	if pago.SaldoPosterior == nil || *pago.SaldoPosterior != 80000 {
		t.Fatalf("saldo posterior incorrecto: %v", pago.SaldoPosterior)
	}
}

func TestPagoParcialNoMarcaLaCuota(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}
	primera := cuotaNumero(t, db, plan.ID, 1)

	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(15000, &primera.ID)); err != nil {
		t.Fatal(err)
	}

	primera = cuotaNumero(t, db, plan.ID, 1)
	if primera.Estado != models.CuotaPendiente {
		t.Fatal("un pago parcial no completa la cuota")
	}
	if primera.SaldoPendiente() != 25000 {
		t.Fatalf("esperaba saldo pendiente 25000 en la cuota, tengo %v", primera.SaldoPendiente())
	}

	// El segundo pago completa la cuota y el excedente pasa a la siguiente
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(30000, &primera.ID)); err != nil {
		t.Fatal(err)
	}

	primera = cuotaNumero(t, db, plan.ID, 1)
	segunda := cuotaNumero(t, db, plan.ID, 2)
	if primera.Estado != models.CuotaPagada {
		t.Fatal("la cuota 1 debía quedar pagada")
	}
	if segunda.TotalAplicado() != 5000 {
		t.Fatalf("el excedente debía caer en la cuota 2: %v", segunda.TotalAplicado())
	}
}

// Escenario completo: plan de 120000 en 3 cuotas de 40000. Se paga la cuota 1
// exacta y después 80000 dirigidos a la cuota 2, que cubren la 2 y la 3. Al
// final el plan queda finalizado y la cuenta se cierra sola en el recálculo.
func TestEscenarioCompletoDeCobranza(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 120000 || cuenta.Estado != models.CuentaEnDeuda {
		t.Fatalf("esperaba saldo 120000 en deuda, tengo %v %v", cuenta.Saldo, cuenta.Estado)
	}

	primera := cuotaNumero(t, db, plan.ID, 1)
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(40000, &primera.ID)); err != nil {
		t.Fatal(err)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 80000 {
		t.Fatalf("esperaba saldo 80000, tengo %v", cuenta.Saldo)
	}

	segunda := cuotaNumero(t, db, plan.ID, 2)
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(80000, &segunda.ID)); err != nil {
		t.Fatal(err)
	}

	segunda = cuotaNumero(t, db, plan.ID, 2)
	tercera := cuotaNumero(t, db, plan.ID, 3)
	if segunda.Estado != models.CuotaPagada || tercera.Estado != models.CuotaPagada {
		t.Fatal("las cuotas 2 y 3 debían quedar pagadas")
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 0 {
		t.Fatalf("esperaba saldo 0, tengo %v", cuenta.Saldo)
	}

	var planFinal models.PlanPago
	db.First(&planFinal, "id = ?", plan.ID)
	if planFinal.Estado != models.PlanFinalizado {
		t.Fatalf("el plan debía quedar finalizado, está %v", planFinal.Estado)
	}
	if cuenta.Estado != models.CuentaCerrada {
		t.Fatalf("plan finalizado y saldo 0 cierran la cuenta, está %v", cuenta.Estado)
	}
}

// El excedente más allá de la última cuota queda sin aplicar: no se devuelve
// ni genera movimiento, solo baja el pendiente de cuotas hasta donde alcanza.
func TestExcedenteQuedaSinAplicar(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	// Deuda manual extra para que el cobro grande pase la guarda de saldo
	deudaManual(t, db, cuenta, 10000)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}

	primera := cuotaNumero(t, db, plan.ID, 1)
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(40000, &primera.ID)); err != nil {
		t.Fatal(err)
	}

	// 90000 dirigidos a la cuota 2: 40000 + 40000 aplicados, 10000 sobran
	segunda := cuotaNumero(t, db, plan.ID, 2)
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(90000, &segunda.ID)); err != nil {
		t.Fatal(err)
	}

	var aplicado float64
	db.Model(&models.PagoCuota{}).
		Select("COALESCE(SUM(monto_aplicado), 0)").
		Scan(&aplicado)
	if aplicado != 120000 {
		t.Fatalf("esperaba 120000 aplicados en total, tengo %v", aplicado)
	}

	// El sobrante no se asienta: la deuda manual sigue viva en el saldo
	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 10000 || cuenta.Estado != models.CuentaEnDeuda {
		t.Fatalf("esperaba saldo 10000 en deuda, tengo %v %v", cuenta.Saldo, cuenta.Estado)
	}

	var planFinal models.PlanPago
	db.First(&planFinal, "id = ?", plan.ID)
	if planFinal.Estado != models.PlanFinalizado {
		t.Fatalf("con todas las cuotas pagadas el plan finaliza, está %v", planFinal.Estado)
	}
}

func TestPagoSuperaElSaldoRechaza(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 50000)

	_, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(50001, nil))
	if !errors.Is(err, ErrSaldoExcedido) {
		t.Fatalf("esperaba ErrSaldoExcedido, tengo %v", err)
	}

	// Nada persistido del intento fallido
	var pagos, movs int64
	db.Model(&models.Pago{}).Where("cuenta_id = ?", cuenta.ID).Count(&pagos)
	db.Model(&models.MovimientoCuenta{}).
		Where("cuenta_id = ? AND origen = ?", cuenta.ID, models.OrigenPago).
		Count(&movs)
	if pagos != 0 || movs != 0 {
		t.Fatalf("el pago rechazado dejó rastros: pagos=%d movs=%d", pagos, movs)
	}
}

func TestPagoUnicoSinPlanCreaPlanSintetico(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	deudaManual(t, db, cuenta, 50000)

	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(50000, nil)); err != nil {
		t.Fatal(err)
	}

	var plan models.PlanPago
	if err := db.Where("cuenta_id = ?", cuenta.ID).First(&plan).Error; err != nil {
		t.Fatalf("esperaba un plan sintético: %v", err)
	}
	if plan.TipoPlan != models.PlanUnico || plan.CantidadCuotas != 1 {
		t.Fatalf("plan sintético inesperado: %+v", plan)
	}

	// El plan sintético no asienta deuda propia: la deuda ya estaba en los
	// movimientos manuales y el saldo tiene que quedar en cero
	var debitosDePlan int64
	db.Model(&models.MovimientoCuenta{}).Where("plan_id = ?", plan.ID).Count(&debitosDePlan)
	if debitosDePlan != 0 {
		t.Fatalf("el plan sintético no debe generar débitos, tengo %d", debitosDePlan)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 0 {
		t.Fatalf("esperaba saldo 0, tengo %v", cuenta.Saldo)
	}
	if cuenta.Estado != models.CuentaCerrada {
		t.Fatalf("deuda saldada con plan finalizado cierra la cuenta, está %v", cuenta.Estado)
	}
}

func TestPagoACuentaConPlanNoTocaCuotas(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(25000, nil)); err != nil {
		t.Fatal(err)
	}

	var aplicaciones int64
	db.Model(&models.PagoCuota{}).Count(&aplicaciones)
	if aplicaciones != 0 {
		t.Fatalf("un pago a cuenta no aplica a cuotas, tengo %d aplicaciones", aplicaciones)
	}

	primera := cuotaNumero(t, db, plan.ID, 1)
	if primera.Estado != models.CuotaPendiente {
		t.Fatal("las cuotas no debían cambiar")
	}

	var mov models.MovimientoCuenta
	if err := db.Where("cuenta_id = ? AND origen = ?", cuenta.ID, models.OrigenPago).First(&mov).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mov.Descripcion, "Pago a cuenta") {
		t.Fatalf("descripción inesperada: %q", mov.Descripcion)
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 95000 {
		t.Fatalf("esperaba saldo 95000, tengo %v", cuenta.Saldo)
	}
}

func TestChequeExigeBancoYNumero(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)
	deudaManual(t, db, cuenta, 60000)

	_, err := RegistrarPagoCuenta(db, cuenta.ID, ParamsPago{
		FormaPago: models.FormaCheque,
		Monto:     30000,
	})
	if !errors.Is(err, ErrDatosChequeFaltantes) {
		t.Fatalf("esperaba ErrDatosChequeFaltantes, tengo %v", err)
	}

	pago, err := RegistrarPagoCuenta(db, cuenta.ID, ParamsPago{
		FormaPago:    models.FormaCheque,
		Monto:        30000,
		Banco:        "Banco Nación",
		NumeroCheque: "00012345",
	})
	if err != nil {
		t.Fatal(err)
	}
	if pago.Banco != "Banco Nación" || pago.NumeroCheque != "00012345" {
		t.Fatalf("datos de cheque perdidos: %+v", pago)
	}

	// Los datos del cheque quedan legibles en el movimiento
	var mov models.MovimientoCuenta
	if err := db.Where("cuenta_id = ? AND origen = ?", cuenta.ID, models.OrigenPago).First(&mov).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mov.Descripcion, "Banco Nación") || !strings.Contains(mov.Descripcion, "00012345") {
		t.Fatalf("el movimiento no describe el cheque: %q", mov.Descripcion)
	}
}

func TestFormaPagoInvalida(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)
	deudaManual(t, db, cuenta, 1000)

	_, err := RegistrarPagoCuenta(db, cuenta.ID, ParamsPago{FormaPago: "tarjeta", Monto: 100})
	if !errors.Is(err, ErrFormaPagoFaltante) {
		t.Fatalf("esperaba ErrFormaPagoFaltante, tengo %v", err)
	}

	_, err = RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(0, nil))
	if !errors.Is(err, ErrMontoInvalido) {
		t.Fatalf("esperaba ErrMontoInvalido, tengo %v", err)
	}
}

func TestCuotaDeOtroPlanRechaza(t *testing.T) {
	db := abrirDB(t)
	cuentaA := crearCuenta(t, db)
	cuentaB := crearCuenta(t, db)

	planA, err := CrearOReemplazarPlan(db, cuentaA.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CrearOReemplazarPlan(db, cuentaB.ID, paramsPlanBase()); err != nil {
		t.Fatal(err)
	}

	cuotaDeA := cuotaNumero(t, db, planA.ID, 1)

	// Pagar en la cuenta B apuntando a una cuota del plan de A
	_, err = RegistrarPagoCuenta(db, cuentaB.ID, pagoEfectivo(40000, &cuotaDeA.ID))
	if !errors.Is(err, ErrCuotaAjena) {
		t.Fatalf("esperaba ErrCuotaAjena, tengo %v", err)
	}
}

func TestCuotaDirigidaSinPlanRechaza(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)
	deudaManual(t, db, cuenta, 50000)

	inexistente := uint(9999)
	_, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(10000, &inexistente))
	if !errors.Is(err, ErrCuotaAjena) {
		t.Fatalf("esperaba ErrCuotaAjena, tengo %v", err)
	}
}

func TestClaveIdempotenciaRechazaDobleSubmit(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)
	deudaManual(t, db, cuenta, 100000)

	params := pagoEfectivo(20000, nil)
	params.ClaveIdempotencia = "clave-unica-123"

	if _, err := RegistrarPagoCuenta(db, cuenta.ID, params); err != nil {
		t.Fatal(err)
	}

	_, err := RegistrarPagoCuenta(db, cuenta.ID, params)
	if !errors.Is(err, ErrPagoDuplicado) {
		t.Fatalf("esperaba ErrPagoDuplicado, tengo %v", err)
	}

	var pagos int64
	db.Model(&models.Pago{}).Where("cuenta_id = ?", cuenta.ID).Count(&pagos)
	if pagos != 1 {
		t.Fatalf("esperaba un solo pago persistido, tengo %d", pagos)
	}
}

func TestNumeracionDeRecibos(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)
	deudaManual(t, db, cuenta, 100000)

	anio := time.Now().Year()
	vistos := map[string]bool{}
	for i := 1; i <= 3; i++ {
		pago, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(1000, nil))
		if err != nil {
			t.Fatal(err)
		}

		esperado := fmt.Sprintf("RC-%d-%06d", anio, i)
		if pago.NumeroRecibo != esperado {
			t.Fatalf("esperaba recibo %s, tengo %s", esperado, pago.NumeroRecibo)
		}
		if vistos[pago.NumeroRecibo] {
			t.Fatalf("número de recibo repetido: %s", pago.NumeroRecibo)
		}
		vistos[pago.NumeroRecibo] = true
	}
}

func TestNumeracionDeRecibosConcurrente(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	// Plan preexistente: los cobros concurrentes van como pago a cuenta y no
	// compiten por crear el plan sintético
	if _, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase()); err != nil {
		t.Fatal(err)
	}

	const cobros = 8
	var wg sync.WaitGroup
	recibos := make(chan string, cobros)
	fallas := make(chan error, cobros)

	for i := 0; i < cobros; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pago, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(1000, nil))
			if err != nil {
				fallas <- err
				return
			}
			recibos <- pago.NumeroRecibo
		}()
	}
	wg.Wait()
	close(recibos)
	close(fallas)

	for err := range fallas {
		t.Fatalf("cobro concurrente falló: %v", err)
	}

	vistos := map[string]bool{}
	for recibo := range recibos {
		if vistos[recibo] {
			t.Fatalf("número de recibo repetido bajo concurrencia: %s", recibo)
		}
		vistos[recibo] = true
	}

	// La secuencia del año queda completa, sin huecos ni saltos
	anio := time.Now().Year()
	for i := 1; i <= cobros; i++ {
		esperado := fmt.Sprintf("RC-%d-%06d", anio, i)
		if !vistos[esperado] {
			t.Fatalf("falta el recibo %s en la secuencia", esperado)
		}
	}

	var contador models.ReciboContador
	if err := db.Where("anio = ?", anio).First(&contador).Error; err != nil {
		t.Fatal(err)
	}
	if contador.UltimoNumero != cobros {
		t.Fatalf("el contador del año debía quedar en %d, está en %d", cobros, contador.UltimoNumero)
	}
}

func TestDeteccionDeViolacionDeUnicidad(t *testing.T) {
	casos := []struct {
		err    error
		espera bool
	}{
		{gorm.ErrDuplicatedKey, true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_pagos_numero_recibo" (SQLSTATE 23505)`), true},
		{errors.New("UNIQUE constraint failed: pagos.clave_idempotencia"), true},
		{errors.New("connection refused"), false},
	}

	for _, caso := range casos {
		if got := esViolacionDeUnicidad(caso.err); got != caso.espera {
			t.Errorf("esViolacionDeUnicidad(%v) = %v, esperaba %v", caso.err, got, caso.espera)
		}
	}
}

func TestMovimientoPorCadaAplicacion(t *testing.T) {
	db := abrirDB(t)
	cuenta := crearCuenta(t, db)

	plan, err := CrearOReemplazarPlan(db, cuenta.ID, paramsPlanBase())
	if err != nil {
		t.Fatal(err)
	}
	primera := cuotaNumero(t, db, plan.ID, 1)

	// 100000 desde la cuota 1: cubre 1 y 2 enteras y deja 20000 en la 3
	if _, err := RegistrarPagoCuenta(db, cuenta.ID, pagoEfectivo(100000, &primera.ID)); err != nil {
		t.Fatal(err)
	}

	var movs []models.MovimientoCuenta
	db.Where("cuenta_id = ? AND origen = ?", cuenta.ID, models.OrigenPago).
		Order("id asc").Find(&movs)
	if len(movs) != 3 {
		t.Fatalf("esperaba 3 movimientos de haber (uno por aplicación), tengo %d", len(movs))
	}

	montos := []float64{40000, 40000, 20000}
	for i, mov := range movs {
		if mov.Monto != montos[i] {
			t.Fatalf("movimiento %d por %v, esperaba %v", i+1, mov.Monto, montos[i])
		}
		if mov.Tipo != models.MovHaber {
			t.Fatalf("movimiento %d con tipo %v", i+1, mov.Tipo)
		}
	}

	tercera := cuotaNumero(t, db, plan.ID, 3)
	if tercera.Estado != models.CuotaPendiente || tercera.SaldoPendiente() != 20000 {
		t.Fatalf("la cuota 3 debía quedar pendiente con 20000: %v %v", tercera.Estado, tercera.SaldoPendiente())
	}

	recargarCuenta(t, db, cuenta)
	if cuenta.Saldo != 20000 {
		t.Fatalf("esperaba saldo 20000, tengo %v", cuenta.Saldo)
	}
}

package cuentas

import "errors"

// Errores de negocio del motor de cuentas. Los handlers los traducen a
// códigos HTTP; ninguno deja escrituras parciales.
var (
	ErrMontoInvalido        = errors.New("el monto debe ser un valor positivo")
	ErrPlanInvalido         = errors.New("configuración de plan inválida")
	ErrFormaPagoFaltante    = errors.New("falta la forma de pago")
	ErrDatosChequeFaltantes = errors.New("debe indicar el banco y el número de cheque")
	ErrCuotaAjena           = errors.New("la cuota no pertenece al plan de la cuenta")
	ErrCuentaConSaldo       = errors.New("no se puede cerrar una cuenta con deuda")
	ErrCuentaCerrada        = errors.New("la cuenta está cerrada")
	ErrSaldoExcedido        = errors.New("el monto supera el saldo total de la cuenta")
	ErrPlanConPagos         = errors.New("el plan tiene cuotas con pagos aplicados")
	ErrPagoDuplicado        = errors.New("ya se registró un pago con esa clave")

	// Una escritura perdió la carrera contra otro proceso (número de recibo
	// o saldo). El índice único lo detecta; el caller puede reintentar.
	ErrModificacionConcurrente = errors.New("modificación concurrente detectada, reintente la operación")
)

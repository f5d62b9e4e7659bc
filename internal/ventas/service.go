package ventas

import (
	"errors"

	"concesionaria-backend/internal/cuentas"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrVentaIncompleta  = errors.New("La venta necesita cliente y vehículo antes de confirmarse")
	ErrVentaNoPendiente = errors.New("Solo se puede confirmar una venta pendiente")
	ErrVentaActiva      = errors.New("El vehículo ya tiene una venta en curso")
)

// CrearVenta da de alta una venta pendiente. Un vehículo admite una sola
// venta no revertida a la vez; las revertidas quedan como historial y no
// bloquean la reventa.
func CrearVenta(db *gorm.DB, venta *models.Venta) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if venta.VehiculoID != nil {
			var vehiculo models.Vehiculo
			if err := tx.First(&vehiculo, "id = ?", *venta.VehiculoID).Error; err != nil {
				return err
			}
			if vehiculo.Estado == models.VehiculoVendido {
				return ErrVentaActiva
			}

			var activas int64
			if err := tx.Model(&models.Venta{}).
				Where("vehiculo_id = ? AND estado <> ?", *venta.VehiculoID, models.VentaRevertida).
				Count(&activas).Error; err != nil {
				return err
			}
			if activas > 0 {
				return ErrVentaActiva
			}
		}
		return tx.Create(venta).Error
	})
}

// Confirmar pasa la venta a confirmada, marca el vehículo como vendido y deja
// lista la cuenta corriente de la operación. La deuda la asienta después el
// plan de pago o los movimientos manuales; acá solo se prepara el terreno.
func Confirmar(db *gorm.DB, ventaID uint) (*models.Venta, *models.CuentaCorriente, error) {
	var venta models.Venta
	var cuenta models.CuentaCorriente

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := database.BloqueoFila(tx).First(&venta, "id = ?", ventaID).Error; err != nil {
			return err
		}

		if venta.Estado != models.VentaPendiente {
			return ErrVentaNoPendiente
		}
		if venta.ClienteID == nil || venta.VehiculoID == nil {
			return ErrVentaIncompleta
		}

		var vehiculo models.Vehiculo
		if err := tx.First(&vehiculo, "id = ?", *venta.VehiculoID).Error; err != nil {
			return err
		}

		// El precio de lista queda congelado en la venta si no se pactó otro
		if venta.PrecioVenta == nil {
			precio := vehiculo.Precio
			venta.PrecioVenta = &precio
		}
		venta.Estado = models.VentaConfirmada
		if err := tx.Save(&venta).Error; err != nil {
			return err
		}

		if err := tx.Model(&vehiculo).Update("estado", models.VehiculoVendido).Error; err != nil {
			return err
		}

		err := tx.Where("venta_id = ?", venta.ID).First(&cuenta).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			cuenta = models.CuentaCorriente{
				ClienteID: *venta.ClienteID,
				VentaID:   &venta.ID,
				Estado:    models.CuentaAlDia,
			}
			return tx.Create(&cuenta).Error
		case err != nil:
			return err
		}

		// Cuenta preexistente: si quedó cerrada de una operación anterior se
		// reabre, y el titular se sincroniza con el de la venta
		cuenta.ClienteID = *venta.ClienteID
		if cuenta.Estado == models.CuentaCerrada {
			if err := tx.Save(&cuenta).Error; err != nil {
				return err
			}
			return cuentas.RecalcularSaldo(tx, &cuenta)
		}
		return tx.Save(&cuenta).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &venta, &cuenta, nil
}

// AdjudicarCliente asigna (o cambia) el cliente de una venta y mantiene la
// cuenta corriente asociada apuntando al titular correcto. Si la cuenta venía
// de una operación caída con otro titular y nunca registró cobros, sus
// movimientos huérfanos se limpian y la cuenta arranca de cero.
func AdjudicarCliente(db *gorm.DB, ventaID, clienteID uint) (*models.Venta, error) {
	var venta models.Venta

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := database.BloqueoFila(tx).First(&venta, "id = ?", ventaID).Error; err != nil {
			return err
		}

		var cliente models.Cliente
		if err := tx.First(&cliente, "id = ? AND activo = ?", clienteID, true).Error; err != nil {
			return err
		}

		venta.ClienteID = &cliente.ID
		if err := tx.Save(&venta).Error; err != nil {
			return err
		}

		var cuenta models.CuentaCorriente
		err := tx.Where("venta_id = ?", venta.ID).First(&cuenta).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if cuenta.ClienteID != cliente.ID {
			var pagos int64
			if err := tx.Model(&models.Pago{}).Where("cuenta_id = ?", cuenta.ID).Count(&pagos).Error; err != nil {
				return err
			}
			if pagos == 0 {
				if err := tx.Where("cuenta_id = ?", cuenta.ID).Delete(&models.MovimientoCuenta{}).Error; err != nil {
					return err
				}
			}
			cuenta.ClienteID = cliente.ID
		}

		if err := tx.Save(&cuenta).Error; err != nil {
			return err
		}
		return cuentas.RecalcularSaldo(tx, &cuenta)
	})
	if err != nil {
		return nil, err
	}
	return &venta, nil
}

// Revertir anula una venta confirmada: el vehículo vuelve a stock y la cuenta
// asociada se elimina si no registró movimientos ni pagos. Con historial, la
// cuenta queda y se resuelve por los canales normales.
func Revertir(db *gorm.DB, ventaID uint) (*models.Venta, error) {
	var venta models.Venta

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := database.BloqueoFila(tx).First(&venta, "id = ?", ventaID).Error; err != nil {
			return err
		}

		if venta.Estado != models.VentaConfirmada {
			return errors.New("Solo se puede revertir una venta confirmada")
		}

		venta.Estado = models.VentaRevertida
		if err := tx.Save(&venta).Error; err != nil {
			return err
		}

		if venta.VehiculoID != nil {
			if err := tx.Model(&models.Vehiculo{}).
				Where("id = ?", *venta.VehiculoID).
				Update("estado", models.VehiculoEnStock).Error; err != nil {
				return err
			}
		}

		var cuenta models.CuentaCorriente
		err := tx.Where("venta_id = ?", venta.ID).First(&cuenta).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var movimientos, pagos int64
		tx.Model(&models.MovimientoCuenta{}).Where("cuenta_id = ?", cuenta.ID).Count(&movimientos)
		tx.Model(&models.Pago{}).Where("cuenta_id = ?", cuenta.ID).Count(&pagos)
		if movimientos == 0 && pagos == 0 {
			return tx.Delete(&cuenta).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &venta, nil
}

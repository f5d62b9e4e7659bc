package reportes

import (
	"fmt"
	"time"

	"concesionaria-backend/internal/cuentas"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// rangoFechas lee desde/hasta de la query. Los dos son obligatorios: los
// reportes siempre se piden con período explícito.
func rangoFechas(c *fiber.Ctx) (time.Time, time.Time, error) {
	desdeStr := c.Query("desde")
	hastaStr := c.Query("hasta")
	if desdeStr == "" || hastaStr == "" {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "desde y hasta son obligatorios (YYYY-MM-DD)")
	}

	desde, err := time.Parse("2006-01-02", desdeStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "desde debe tener formato YYYY-MM-DD")
	}
	hasta, err := time.Parse("2006-01-02", hastaStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "hasta debe tener formato YYYY-MM-DD")
	}
	if hasta.Before(desde) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "hasta no puede ser anterior a desde")
	}

	// hasta inclusivo: se corre al fin del día
	return desde, hasta.AddDate(0, 0, 1), nil
}

// GET /api/reportes/saldos - foto general de las cuentas corrientes
func SaldosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type filaEstado struct {
			Estado models.EstadoCuenta
			Total  int64
			Saldo  float64
		}

		var filas []filaEstado
		err := database.DB.Model(&models.CuentaCorriente{}).
			Select("estado, COUNT(*) as total, COALESCE(SUM(saldo), 0) as saldo").
			Group("estado").
			Scan(&filas).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el reporte")
		}

		porEstado := fiber.Map{}
		totalSaldo := 0.0
		var totalCuentas int64
		for _, f := range filas {
			porEstado[string(f.Estado)] = fiber.Map{"cuentas": f.Total, "saldo": f.Saldo}
			totalSaldo += f.Saldo
			totalCuentas += f.Total
		}

		return c.JSON(fiber.Map{
			"total_cuentas": totalCuentas,
			"saldo_total":   totalSaldo,
			"por_estado":    porEstado,
		})
	}
}

type CuotaVencidaFila struct {
	CuentaID    uint    `json:"cuenta_id"`
	Cliente     string  `json:"cliente"`
	CuotaID     uint    `json:"cuota_id"`
	Numero      uint    `json:"numero"`
	Vencimiento string  `json:"vencimiento"`
	Monto       float64 `json:"monto"`
	Saldo       float64 `json:"saldo"`
	Mora        float64 `json:"mora"`
	DiasAtraso  int     `json:"dias_atraso"`
}

// GET /api/reportes/cuotas-vencidas?al=YYYY-MM-DD (vacío = hoy)
func CuotasVencidasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		al := time.Now()
		if alStr := c.Query("al"); alStr != "" {
			parsed, err := time.Parse("2006-01-02", alStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "al debe tener formato YYYY-MM-DD")
			}
			al = parsed
		}

		filas, err := cuotasVencidasAl(al)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el reporte")
		}
		return c.JSON(filas)
	}
}

func cuotasVencidasAl(al time.Time) ([]CuotaVencidaFila, error) {
	var vencidas []models.CuotaPlan
	err := database.DB.Preload("Aplicaciones").Preload("Plan.Cuenta.Cliente").
		Where("estado = ? AND vencimiento < ?", models.CuotaPendiente, al).
		Order("vencimiento asc").
		Find(&vencidas).Error
	if err != nil {
		return nil, err
	}

	filas := make([]CuotaVencidaFila, 0, len(vencidas))
	for i := range vencidas {
		cuota := &vencidas[i]
		if cuota.Plan.Estado == models.PlanFinalizado {
			continue
		}
		filas = append(filas, CuotaVencidaFila{
			CuentaID:    cuota.Plan.CuentaID,
			Cliente:     cuota.Plan.Cuenta.Cliente.NombreCompleto,
			CuotaID:     cuota.ID,
			Numero:      cuota.Numero,
			Vencimiento: cuota.Vencimiento.Format("2006-01-02"),
			Monto:       cuota.Monto,
			Saldo:       cuota.SaldoPendiente(),
			Mora:        cuentas.CalcularMora(cuota, &cuota.Plan, al),
			DiasAtraso:  int(al.Sub(cuota.Vencimiento).Hours() / 24),
		})
	}
	return filas, nil
}

type CobranzaFila struct {
	PagoID       uint    `json:"pago_id"`
	NumeroRecibo string  `json:"numero_recibo"`
	Fecha        string  `json:"fecha"`
	Cliente      string  `json:"cliente"`
	FormaPago    string  `json:"forma_pago"`
	Monto        float64 `json:"monto"`
}

// GET /api/reportes/cobranzas?desde=...&hasta=...
func CobranzasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		desde, hasta, err := rangoFechas(c)
		if err != nil {
			return err
		}

		filas, totales, err := cobranzasEntre(desde, hasta)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el reporte")
		}

		return c.JSON(fiber.Map{
			"pagos":   filas,
			"totales": totales,
		})
	}
}

func cobranzasEntre(desde, hasta time.Time) ([]CobranzaFila, fiber.Map, error) {
	var pagos []models.Pago
	err := database.DB.Preload("Cuenta.Cliente").
		Where("fecha >= ? AND fecha < ?", desde, hasta).
		Order("fecha asc, id asc").
		Find(&pagos).Error
	if err != nil {
		return nil, nil, err
	}

	filas := make([]CobranzaFila, 0, len(pagos))
	total := 0.0
	porForma := map[models.FormaPago]float64{}
	for _, p := range pagos {
		filas = append(filas, CobranzaFila{
			PagoID:       p.ID,
			NumeroRecibo: p.NumeroRecibo,
			Fecha:        p.Fecha.Format("2006-01-02"),
			Cliente:      p.Cuenta.Cliente.NombreCompleto,
			FormaPago:    string(p.FormaPago),
			Monto:        p.MontoTotal,
		})
		total += p.MontoTotal
		porForma[p.FormaPago] += p.MontoTotal
	}

	totales := fiber.Map{
		"cantidad": len(pagos),
		"total":    total,
		"efectivo": porForma[models.FormaEfectivo],
		"cheque":   porForma[models.FormaCheque],
	}
	return filas, totales, nil
}

// GET /api/reportes/cobranzas/export?desde=...&hasta=... - planilla Excel
func ExportarCobranzasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		desde, hasta, err := rangoFechas(c)
		if err != nil {
			return err
		}

		filas, _, err := cobranzasEntre(desde, hasta)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el reporte")
		}

		f := excelize.NewFile()
		defer f.Close()

		hoja := "Cobranzas"
		f.SetSheetName("Sheet1", hoja)

		encabezados := []string{"Recibo", "Fecha", "Cliente", "Forma de pago", "Monto"}
		for i, titulo := range encabezados {
			celda, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(hoja, celda, titulo)
		}

		total := 0.0
		for i, fila := range filas {
			fNum := i + 2
			f.SetCellValue(hoja, fmt.Sprintf("A%d", fNum), fila.NumeroRecibo)
			f.SetCellValue(hoja, fmt.Sprintf("B%d", fNum), fila.Fecha)
			f.SetCellValue(hoja, fmt.Sprintf("C%d", fNum), fila.Cliente)
			f.SetCellValue(hoja, fmt.Sprintf("D%d", fNum), fila.FormaPago)
			f.SetCellValue(hoja, fmt.Sprintf("E%d", fNum), fila.Monto)
			total += fila.Monto
		}

		filaTotal := len(filas) + 3
		f.SetCellValue(hoja, fmt.Sprintf("D%d", filaTotal), "Total")
		f.SetCellValue(hoja, fmt.Sprintf("E%d", filaTotal), total)

		f.SetColWidth(hoja, "A", "A", 16)
		f.SetColWidth(hoja, "B", "B", 12)
		f.SetColWidth(hoja, "C", "C", 32)
		f.SetColWidth(hoja, "D", "E", 14)

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el archivo")
		}

		nombre := fmt.Sprintf("cobranzas_%s_%s.xlsx",
			desde.Format("20060102"), hasta.AddDate(0, 0, -1).Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+nombre+`"`)
		return c.Send(buf.Bytes())
	}
}

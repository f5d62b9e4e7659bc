package main

import (
	"log"
	"strings"

	"concesionaria-backend/internal/auth"
	"concesionaria-backend/internal/bitacora"
	"concesionaria-backend/internal/clientes"
	"concesionaria-backend/internal/config"
	"concesionaria-backend/internal/cuentas"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/deudas"
	"concesionaria-backend/internal/models"
	"concesionaria-backend/internal/reportes"
	"concesionaria-backend/internal/vehiculos"
	"concesionaria-backend/internal/ventas"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Error inesperado:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error inesperado del servidor",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Rutas públicas
	api.Post("/auth/registrar-admin", auth.RegistrarAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Rutas protegidas
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Solo admin
	soloAdmin := auth.RequerirRol(models.RolAdmin)

	protected.Post("/usuarios", soloAdmin, auth.CrearUsuarioHandler())
	protected.Delete("/cuentas/:id", soloAdmin, cuentas.EliminarCuentaHandler())
	protected.Delete("/clientes/:id", soloAdmin, clientes.EliminarHandler())
	protected.Delete("/vehiculos/:id", soloAdmin, vehiculos.EliminarHandler())
	protected.Put("/reglas-comerciales", soloAdmin, clientes.GuardarReglaHandler())
	protected.Get("/bitacora", soloAdmin, bitacora.ListarHandler())

	// Clientes
	protected.Post("/clientes", clientes.CrearHandler())
	protected.Get("/clientes", clientes.ListarHandler())
	protected.Get("/clientes/:id", clientes.DetalleHandler())
	protected.Put("/clientes/:id", clientes.ActualizarHandler())
	protected.Put("/clientes/:id/cumplimiento", clientes.ActualizarCumplimientoHandler())
	protected.Get("/reglas-comerciales", clientes.ListarReglasHandler())

	// Vehículos
	protected.Post("/vehiculos", vehiculos.CrearHandler())
	protected.Get("/vehiculos", vehiculos.ListarHandler())
	protected.Get("/vehiculos/:id", vehiculos.DetalleHandler())
	protected.Put("/vehiculos/:id", vehiculos.ActualizarHandler())

	// Ventas
	protected.Post("/ventas", ventas.CrearVentaHandler())
	protected.Get("/ventas", ventas.ListarVentasHandler())
	protected.Put("/ventas/:id/cliente", ventas.AdjudicarClienteHandler())
	protected.Post("/ventas/:id/confirmar", ventas.ConfirmarVentaHandler())
	protected.Post("/ventas/:id/revertir", ventas.RevertirVentaHandler())

	// Cuentas corrientes
	protected.Post("/cuentas", cuentas.CrearCuentaHandler())
	protected.Get("/cuentas", cuentas.ListarCuentasHandler())
	protected.Get("/cuentas/alertas", cuentas.AlertasCuotasHandler())
	protected.Get("/cuentas/:id", cuentas.DetalleCuentaHandler())
	protected.Post("/cuentas/:id/movimientos", cuentas.RegistrarMovimientoManualHandler())
	protected.Post("/cuentas/:id/cerrar", cuentas.CerrarCuentaHandler())
	protected.Get("/cuentas/:id/historial", cuentas.HistorialFinanciacionHandler())

	// Planes de pago
	protected.Post("/cuentas/:id/plan", cuentas.CrearPlanHandler())
	protected.Get("/cuentas/:id/plan", cuentas.DetallePlanHandler())
	protected.Delete("/cuentas/:id/plan", cuentas.EliminarPlanHandler())
	protected.Put("/cuotas/:id", cuentas.EditarCuotaHandler())

	// Pagos y recibos
	protected.Post("/cuentas/:id/pagos", cuentas.RegistrarPagoHandler())
	protected.Get("/cuentas/:id/pagos", cuentas.ListarPagosHandler())
	protected.Get("/pagos/:id", cuentas.DetallePagoHandler())

	// Deudas con proveedores
	protected.Post("/deudas-proveedores", deudas.CrearHandler())
	protected.Get("/deudas-proveedores", deudas.ListarHandler())
	protected.Post("/deudas-proveedores/:id/pagos", deudas.PagarHandler())
	protected.Delete("/deudas-proveedores/:id", deudas.EliminarHandler())
	protected.Get("/deudas", deudas.ListarCombinadasHandler())

	// Reportes
	protected.Get("/reportes/saldos", reportes.SaldosHandler())
	protected.Get("/reportes/cuotas-vencidas", reportes.CuotasVencidasHandler())
	protected.Get("/reportes/cobranzas", reportes.CobranzasHandler())
	protected.Get("/reportes/cobranzas/export", reportes.ExportarCobranzasHandler())

	log.Println("Servidor escuchando en el puerto", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

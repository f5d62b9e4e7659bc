package auth

import (
	"strings"

	"concesionaria-backend/internal/config"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegistrarAdminRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CrearUsuarioRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/registrar-admin (público, solo funciona la primera vez)
func RegistrarAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegistrarAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nombre, email y contraseña son obligatorios")
		}

		// Un solo admin inicial por sistema
		var count int64
		database.DB.Model(&models.Usuario{}).
			Where("rol = ?", models.RolAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Ya existe un administrador")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo hashear la contraseña")
		}

		usuario := models.Usuario{
			Nombre:       body.Nombre,
			Email:        body.Email,
			PasswordHash: string(hash),
			Rol:          models.RolAdmin,
		}

		if err := database.DB.Create(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    usuario.ID,
			"email": usuario.Email,
			"rol":   usuario.Rol,
		})
	}
}

// POST /api/usuarios (solo admin): alta de vendedores
func CrearUsuarioHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearUsuarioRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nombre, email y contraseña son obligatorios")
		}

		rol := models.RolUsuario(body.Rol)
		if rol != models.RolAdmin && rol != models.RolVendedor {
			return fiber.NewError(fiber.StatusBadRequest, "rol debe ser 'admin' o 'vendedor'")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo hashear la contraseña")
		}

		usuario := models.Usuario{
			Nombre:       body.Nombre,
			Email:        body.Email,
			PasswordHash: string(hash),
			Rol:          rol,
		}

		if err := database.DB.Create(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":     usuario.ID,
			"nombre": usuario.Nombre,
			"email":  usuario.Email,
			"rol":    usuario.Rol,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var usuario models.Usuario
		if err := database.DB.Where("email = ?", body.Email).First(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usuario.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		token, err := GenerarToken(cfg.JWTSecret, &usuario)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"usuario": fiber.Map{
				"id":     usuario.ID,
				"nombre": usuario.Nombre,
				"email":  usuario.Email,
				"rol":    usuario.Rol,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idVal := c.Locals(CtxUsuarioIDKey)
		id, ok := idVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "No se pudo obtener el usuario")
		}

		var usuario models.Usuario
		if err := database.DB.First(&usuario, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Usuario no encontrado")
		}

		return c.JSON(fiber.Map{
			"id":     usuario.ID,
			"nombre": usuario.Nombre,
			"email":  usuario.Email,
			"rol":    usuario.Rol,
		})
	}
}

package auth

import (
	"fmt"
	"strings"

	"concesionaria-backend/internal/config"
	"concesionaria-backend/internal/database"
	"concesionaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUsuarioIDKey     = "usuario_id"
	CtxUsuarioRolKey    = "usuario_rol"
	CtxUsuarioNombreKey = "usuario_nombre"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Falta el header Authorization")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "El header Authorization debe ser 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("método de firma inválido")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Token inválido o vencido")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "No se pudo interpretar el token")
		}

		c.Locals(CtxUsuarioIDKey, claims.UsuarioID)
		c.Locals(CtxUsuarioRolKey, claims.Rol)

		return c.Next()
	}
}

func RequerirRol(rolesPermitidos ...models.RolUsuario) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rolVal := c.Locals(CtxUsuarioRolKey)
		rol, ok := rolVal.(models.RolUsuario)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol del usuario")
		}

		for _, r := range rolesPermitidos {
			if r == rol {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "No tenés permisos para esta operación")
	}
}

// UsuarioActual devuelve ID y nombre del usuario autenticado, para firmar la
// bitácora.
func UsuarioActual(c *fiber.Ctx) (uint, string, error) {
	idVal := c.Locals(CtxUsuarioIDKey)
	id, ok := idVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el usuario")
	}

	var usuario models.Usuario
	if err := database.DB.First(&usuario, "id = ?", id).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Usuario no encontrado")
	}
	return id, usuario.Nombre, nil
}

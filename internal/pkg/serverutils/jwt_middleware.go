// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware accepts HS256 bearer tokens signed with secret and stores the
// user_id and role claims in Locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || token == nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
		}

		userId, _ := claims["user_id"].(string)
		if userId == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
		}
		role, _ := claims["role"].(string)

		ctx.Locals("user_id", userId)
		ctx.Locals("role", role)
		return ctx.Next()
	}
}

// AdminOnly must run after JwtMiddleware.
func AdminOnly(ctx *fiber.Ctx) error {
	if role, _ := ctx.Locals("role").(string); role != "admin" {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Admin access required"))
	}
	return ctx.Next()
}

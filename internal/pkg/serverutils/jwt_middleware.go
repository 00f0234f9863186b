package serverutils

import (
	"errors"

	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserId = "user_id"
	LocalRole   = "role"
)

// AuthClaims is the token shape issued by the auth service.
type AuthClaims struct {
	UserId string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewJwtMiddleware verifies HS256 bearer tokens signed with secret and stores
// the caller in ctx.Locals.
func NewJwtMiddleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing or invalid authorization header"))
		}
		tokenStr := authHeader[7:]

		claims := &AuthClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid or expired token"))
		}

		if _, err := uuid.Parse(claims.UserId); err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token claims"))
		}
		if _, err := entity.ParseUserRole(claims.Role); err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token claims"))
		}

		ctx.Locals(LocalUserId, claims.UserId)
		ctx.Locals(LocalRole, claims.Role)
		return ctx.Next()
	}
}

// RequireRole must run after the JWT middleware.
func RequireRole(roles ...entity.UserRole) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role, _ := ctx.Locals(LocalRole).(string)
		for _, r := range roles {
			if string(r) == role {
				return ctx.Next()
			}
		}
		if len(roles) == 1 && roles[0] == entity.UserRoleAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
		}
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied"))
	}
}

var errNoActor = errors.New("no authenticated caller in context")

// ActorFromCtx reads the caller set by the JWT middleware.
func ActorFromCtx(ctx *fiber.Ctx) (entity.Actor, error) {
	userIdStr, _ := ctx.Locals(LocalUserId).(string)
	roleStr, _ := ctx.Locals(LocalRole).(string)

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Actor{}, apperror.Unauthorized("Invalid token claims").Wrap(errNoActor)
	}
	role, err := entity.ParseUserRole(roleStr)
	if err != nil {
		return entity.Actor{}, apperror.Unauthorized("Invalid token claims").Wrap(errNoActor)
	}
	return entity.Actor{UserId: userId, Role: role}, nil
}

package middleware

import (
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Protected verifies the bearer token and stores the caller as a services.Actor.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SuccessHandler: loadActor,
		ErrorHandler:   jwtError,
	})
}

// ProtectedQuery is Protected for clients that cannot set headers, such as browser
// websockets, reading the token from ?token=.
func ProtectedQuery(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		TokenLookup:    "query:token",
		SuccessHandler: loadActor,
		ErrorHandler:   jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid, missing or expired JWT",
		"kind":  services.KindUnauthorized,
	})
}

func loadActor(c *fiber.Ctx) error {
	actor, ok := actorFromToken(c)
	if !ok {
		return jwtError(c, nil)
	}
	c.Locals(actorKey, actor)
	return c.Next()
}

func actorFromToken(c *fiber.Ctx) (services.Actor, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return services.Actor{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, false
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return services.Actor{}, false
	}
	role, _ := claims["role"].(string)
	return services.Actor{UserID: userID, Role: role}, true
}

// CurrentActor returns the caller stored by Protected.
func CurrentActor(c *fiber.Ctx) (services.Actor, error) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	if !ok {
		return services.Actor{}, services.ErrUnauthorized()
	}
	return actor, nil
}

// RoleRequired lets the request through only for the listed roles.
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "kind": services.KindUnauthorized})
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: insufficient role",
			"kind":  services.KindNotOwner,
		})
	}
}

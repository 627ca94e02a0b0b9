// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware rejects any request that does not carry the
// shared service token issued to the Gateway. Every route sits behind
// it; this service has no public surface of its own. Only the
// "Bearer <token>" form is accepted.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("CTF_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ CTF_SERVICE_TOKEN is not set, service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing bearer token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway bearer token required",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Printf("❌ [GATEWAY_AUTH] Invalid gateway token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway token",
			})
		}

		return c.Next()
	}
}

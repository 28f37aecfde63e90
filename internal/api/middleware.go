package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fmaric77/polmatch-sub004/internal/auth"
	"github.com/fmaric77/polmatch-sub004/internal/service"
)

const sessionCookie = "session"

// sessionToken pulls the token from the Authorization header, the session
// cookie, or (for websocket upgrades) the token query parameter.
func sessionToken(c *fiber.Ctx) string {
	if h := c.Get("Authorization"); h != "" {
		const pref = "Bearer "
		if strings.HasPrefix(h, pref) {
			return h[len(pref):]
		}
		return ""
	}
	if t := c.Cookies(sessionCookie); t != "" {
		return t
	}
	return c.Query("token")
}

func AuthMiddleware(v *auth.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := v.Resolve(sessionToken(c))
		if err != nil {
			return respondError(c, err)
		}
		c.Locals("caller", service.Caller{UserID: id.UserID, IsAdmin: id.IsAdmin})
		return c.Next()
	}
}

func caller(c *fiber.Ctx) service.Caller {
	cl, _ := c.Locals("caller").(service.Caller)
	return cl
}

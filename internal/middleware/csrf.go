package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

// Anti-forgery token names. Clients read the token from the csrf_token field
// of a form response and echo it in both the cookie and the header.
const (
	CSRFCookieName = "csrf_"
	CSRFHeaderName = "X-Csrf-Token"
	csrfContextKey = "csrf"
)

// AntiForgery returns a double-submit-cookie CSRF guard. The same handler
// must serve the GET that issues a token and the POST that checks it.
func AntiForgery() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "header:" + CSRFHeaderName,
		CookieName:     CSRFCookieName,
		CookieSameSite: "Lax",
		CookieHTTPOnly: false,
		Expiration:     time.Hour,
		ContextKey:     csrfContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Invalid or missing anti-forgery token",
				"error":   err.Error(),
			})
		},
	})
}

// CSRFToken returns the token issued for the current request, if any.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}

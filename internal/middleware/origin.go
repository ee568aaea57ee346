package middleware

import (
	"strings"

	"foozadmin/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SameOrigin refuses state-changing requests sent by a browser on behalf of
// another site. The console acts with one stored operator session, so any
// page able to reach it could otherwise act as the operator.
//
// A request passes when its Origin is the console itself or one of
// allowed. Without an Origin header, Sec-Fetch-Site must be absent,
// "same-origin" or "none". Requests carrying neither header come from
// non-browser clients and pass.
func SameOrigin(allowed []string, log *logrus.Entry) fiber.Handler {
	if log == nil {
		log = logging.Discard()
	}
	trusted := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			trusted[strings.ToLower(o)] = true
		}
	}

	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		if origin := c.Get(fiber.HeaderOrigin); origin != "" {
			origin = strings.ToLower(origin)
			if origin == strings.ToLower(c.BaseURL()) || trusted[origin] {
				return c.Next()
			}
			return refuseCrossSite(c, log, origin)
		}

		switch site := c.Get("Sec-Fetch-Site"); site {
		case "", "same-origin", "none":
			return c.Next()
		default:
			return refuseCrossSite(c, log, site)
		}
	}
}

func refuseCrossSite(c *fiber.Ctx, log *logrus.Entry, source string) error {
	log.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"source": source,
	}).Warn("refused cross-site request")
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Cross-site request refused",
	})
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type statusCoder interface {
	HTTPStatus() int
}

// Middleware records request count and latency for every route of a fiber app.
func Middleware(server string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			switch e := err.(type) {
			case *fiber.Error:
				status = e.Code
			case statusCoder:
				status = e.HTTPStatus()
			default:
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path

		HTTPRequestsTotal.WithLabelValues(server, c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(server, c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Route is one entry of a route table: method and path pattern to handler.
type Route struct {
	Method  string
	Path    string
	Handler fiber.Handler
}

// Mountable is implemented by every handler set exposing a route table.
type Mountable interface {
	Prefix() string
	Routes() []Route
}

// RegisterRoutes attaches the health probes and every resource's route table to app.
func RegisterRoutes(app *fiber.App, ping PingFunc, resources ...Mountable) {
	app.Get("/health", HealthCheck(ping))
	app.Get("/healthz", LivenessProbe())

	for _, res := range resources {
		for _, r := range res.Routes() {
			app.Add(r.Method, res.Prefix()+r.Path, r.Handler)
		}
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/namesdb/namesdb/internal/config"
	"github.com/namesdb/namesdb/internal/names"
	"github.com/namesdb/namesdb/internal/transfer"
)

// Deps are the application services a handler works on.
type Deps struct {
	Names    *names.Controller
	Transfer *transfer.Gateway
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps Deps) error
}

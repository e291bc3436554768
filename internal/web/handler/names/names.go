// Package names provides the handlers of the names page: list, add, delete, import and export.
package names

import (
	"context"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/config"
	"github.com/namesdb/namesdb/internal/db/store"
	namectl "github.com/namesdb/namesdb/internal/names"
	"github.com/namesdb/namesdb/internal/transfer"
	"github.com/namesdb/namesdb/internal/web/handler"
)

const (
	// Path is the path of the names page.
	Path = handler.RootPath

	// NamesPath is the path names are posted to.
	NamesPath = "/names"

	// ImportPath receives the uploaded database file.
	ImportPath = "/import"

	// ExportPath sends or writes the database file.
	ExportPath = "/export"

	// TemplateName is the name of the names template.
	TemplateName = "names/index"

	// FormFileField is the multipart field holding the imported file.
	FormFileField = "file"
)

// Alert is the blocking dialog of the page.
type Alert struct {
	Title   string
	Message string
}

// Service is the names handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	ctl *namectl.Controller
	gw  *transfer.Gateway
}

// Handler is the names handler.
var Handler = Service{}

// Init initializes the names handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps handler.Deps) error {
	if app == nil || cfg == nil || deps.Names == nil || deps.Transfer == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.cfg = cfg
	s.ctl = deps.Names
	s.gw = deps.Transfer

	// register routes
	app.Get(Path, s.Get)

	app.Route(NamesPath, func(router fiber.Router) {
		router.Post(handler.RouterRootPath, s.Add)
		router.Post("/:id/delete", s.Delete)
	})

	app.Post(ImportPath, s.Import)
	app.Get(ExportPath, s.Export)

	return nil
}

// render renders the names page with the current controller state.
func (s *Service) render(c *fiber.Ctx, alert *Alert) error {
	return c.Render(TemplateName, fiber.Map{
		"Title":       s.cfg.Title,
		"Loading":     s.ctl.Loading(),
		"Unavailable": !s.ctl.Available(),
		"Names":       s.ctl.Names(),
		"Pending":     s.ctl.Pending(),
		"Alert":       alert,
		"ExportMode":  s.cfg.Export.Mode,
	}, handler.BaseLayout)
}

// Get renders the names page. A loading placeholder is shown until the list is loaded.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, nil)
}

// Add handles the add name form.
func (s *Service) Add(c *fiber.Ctx) error {
	form := new(namectl.AddForm)

	if err := c.BodyParser(form); err != nil {
		log.Debug().Err(err).Msg("failed to parse add name form")
	}

	s.ctl.SetPending(form.Name)

	_, err := s.ctl.AddName(c.UserContext(), form.Name)
	if errors.Is(err, namectl.ErrNameEmpty) {
		return s.render(c.Status(fiber.StatusBadRequest), &Alert{Title: namectl.AlertTitle, Message: namectl.AlertMessage})
	}

	// store errors are reported by the controller, the page shows the unchanged list
	return c.Redirect(Path, fiber.StatusSeeOther)
}

// Delete handles the delete action of one row.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}

	_ = s.ctl.DeleteName(c.UserContext(), int64(id)) //nolint:errcheck // reported by the controller

	return c.Redirect(Path, fiber.StatusSeeOther)
}

// Import replaces the database with the uploaded file. A form without file is a cancelled pick.
func (s *Service) Import(c *fiber.Ctx) error {
	ctx := c.UserContext()

	picker := transfer.PickerFunc(func(_ context.Context) (io.ReadCloser, error) {
		fh, err := c.FormFile(FormFileField)
		if err != nil || (fh.Size == 0 && fh.Filename == "") {
			return nil, transfer.ErrCancelled
		}

		return fh.Open() //nolint:wrapcheck
	})

	_ = s.ctl.Reconnect(ctx, func(current *store.Store) (*store.Store, error) { //nolint:errcheck // reported by the gateway
		return s.gw.Import(ctx, current, picker)
	})

	return c.Redirect(Path, fiber.StatusSeeOther)
}

// Export downloads the database file in share mode and writes it into the
// configured directory in directory mode.
func (s *Service) Export(c *fiber.Ctx) error {
	var exporter transfer.Exporter

	switch s.cfg.Export.Mode {
	case config.ExportModeDirectory:
		exporter = transfer.DirectoryExporter{
			Permissions: transfer.StaticDirectory{Dir: s.cfg.Export.Directory},
		}
	default:
		exporter = transfer.ShareExporter{Sharer: downloadSharer{c: c}}
	}

	if _, err := s.gw.Export(c.UserContext(), s.ctl.Store(), exporter); err != nil {
		// reported by the gateway, denial is a silent no-op for the user
		return c.Redirect(Path, fiber.StatusSeeOther)
	}

	if s.cfg.Export.Mode == config.ExportModeDirectory {
		return c.Redirect(Path, fiber.StatusSeeOther)
	}

	return nil
}

// downloadSharer shares a file as an attachment of the current response.
type downloadSharer struct {
	c *fiber.Ctx
}

// Share implements transfer.Sharer. The file is read on every request, so a
// download always carries the database as it is on disk now.
func (d downloadSharer) Share(_ context.Context, src transfer.Source) error {
	content, err := os.ReadFile(src.Path)
	if err != nil {
		return errors.Wrap(err, "failed to read database file")
	}

	d.c.Attachment(src.FileName)
	d.c.Set(fiber.HeaderContentType, src.MimeType)

	return d.c.Send(content) //nolint:wrapcheck
}

package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"libraryapi/internal/http/middleware"
	"libraryapi/internal/model"
	"libraryapi/internal/repository"
)

// Resource is the CRUD handler set for one collection. Handlers are
// stateless; all state lives behind the repository.
type Resource[T any, P any] struct {
	name     string // "Book"
	singular string // "book"
	plural   string // "books"
	prefix   string // "/books"
	repo     repository.Repository[T, P]
	log      *zap.Logger
}

// NewResource builds the handler set for schema backed by repo.
func NewResource[T any, P any](schema model.Schema[T, P], repo repository.Repository[T, P], log *zap.Logger) *Resource[T, P] {
	singular := strings.ToLower(schema.Name)
	return &Resource[T, P]{
		name:     schema.Name,
		singular: singular,
		plural:   singular + "s",
		prefix:   "/" + schema.Collection,
		repo:     repo,
		log:      log.With(zap.String("resource", schema.Collection)),
	}
}

// Prefix is the path every route of the resource is mounted under.
func (h *Resource[T, P]) Prefix() string { return h.prefix }

// Routes is the resource's route table, relative to Prefix.
func (h *Resource[T, P]) Routes() []Route {
	return []Route{
		{Method: fiber.MethodPost, Path: "", Handler: h.Create()},
		{Method: fiber.MethodGet, Path: "", Handler: h.List()},
		{Method: fiber.MethodGet, Path: "/:id", Handler: h.Get()},
		{Method: fiber.MethodPut, Path: "/:id", Handler: h.Update()},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: h.Delete()},
	}
}

// Create stores the JSON body as a new record and answers 201 with it.
func (h *Resource[T, P]) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in T
		if err := decodeBody(c, &in); err != nil {
			return h.fail(c, "Error creating "+h.singular, err)
		}
		out, err := h.repo.Create(c.UserContext(), &in)
		if err != nil {
			return h.fail(c, "Error creating "+h.singular, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// List answers 200 with every record, [] when there are none.
func (h *Resource[T, P]) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := h.repo.List(c.UserContext())
		if err != nil {
			return h.fail(c, "Error fetching "+h.plural, err)
		}
		return c.Status(fiber.StatusOK).JSON(items)
	}
}

func (h *Resource[T, P]) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := h.repo.FindByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return h.fail(c, "Error fetching "+h.singular, err)
		}
		return c.Status(fiber.StatusOK).JSON(out)
	}
}

// Update merges the fields present in the JSON body into the record.
func (h *Resource[T, P]) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch P
		if err := decodeBody(c, &patch); err != nil {
			return h.fail(c, "Error updating "+h.singular, err)
		}
		out, err := h.repo.UpdateByID(c.UserContext(), c.Params("id"), &patch)
		if err != nil {
			return h.fail(c, "Error updating "+h.singular, err)
		}
		return c.Status(fiber.StatusOK).JSON(out)
	}
}

func (h *Resource[T, P]) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.repo.DeleteByID(c.UserContext(), c.Params("id")); err != nil {
			return h.fail(c, "Error deleting "+h.singular, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": h.name + " deleted successfully"})
	}
}

// fail maps a repository error to a response. NotFound is 404, validation 400,
// uniqueness 409; anything else is logged and answered with a bare 500.
func (h *Resource[T, P]) fail(c *fiber.Ctx, message string, err error) error {
	var ve *repository.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", h.name+" not found")
	case errors.As(err, &ve):
		status, code := fiber.StatusBadRequest, "VALIDATION_ERROR"
		if errors.Is(err, repository.ErrDuplicate) {
			status, code = fiber.StatusConflict, "DUPLICATE"
		}
		return writeErrorEnvelope(c, status, message, errorEnvelope{
			Code:   code,
			Detail: ve.Detail,
			Fields: ve.Fields,
		})
	default:
		h.log.Error("repository_failure",
			zap.String("request_id", middleware.RequestIDFromContext(c.UserContext())),
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Error(err),
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}

// decodeBody parses the request body with the app's JSON decoder. Syntax and
// type errors are client errors and come back as *repository.ValidationError.
func decodeBody(c *fiber.Ctx, v any) error {
	if err := c.App().Config().JSONDecoder(c.Body(), v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return repository.Invalid("malformed JSON body", repository.FieldError{
				Field: typeErr.Field,
				Rule:  "type=" + typeErr.Type.String(),
			})
		}
		return repository.Invalid("malformed JSON body")
	}
	return nil
}

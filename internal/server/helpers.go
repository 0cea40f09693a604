package server

import (
	"context"
	"log/slog"
	"strings"

	"strider/internal/middleware"
	"strider/internal/models"
	"strider/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func requireBody(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return models.NewBadRequestError("Request body is required")
	}
	return nil
}

func requireParam(name string) Validator {
	return func(c *fiber.Ctx) error {
		if strings.TrimSpace(c.Params(name)) == "" {
			return models.NewBadRequestError("Missing " + name)
		}
		return nil
	}
}

func uuidParam(name, label string) Validator {
	return func(c *fiber.Ctx) error {
		_, err := models.ParseID(c.Params(name), label)
		return err
	}
}

func optionalUUIDQuery(name, label string) Validator {
	return func(c *fiber.Ctx) error {
		if raw := c.Query(name); raw != "" {
			_, err := models.ParseID(raw, label)
			return err
		}
		return nil
	}
}

// parseBody decodes the JSON or form body into out.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewBadRequestError("Invalid request body")
	}
	return nil
}

// optionalQueryID parses an optional id query parameter. The zero UUID means absent.
func optionalQueryID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	return models.ParseID(raw, label)
}

// message answers with the {msg} envelope, merged with any extra fields.
func message(c *fiber.Ctx, status int, msg string, extra fiber.Map) error {
	body := fiber.Map{"msg": msg}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// publish sends a domain event. Failures are logged and never fail the request.
func (s *Server) publish(ctx context.Context, ev notifications.Event) {
	if err := s.notifier.Publish(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("event", ev.Type),
			slog.String("error", err.Error()),
		)
	}
}

// lookupUserID resolves a username from the path to an account id.
func (s *Server) lookupUserID(ctx context.Context, username string) (uuid.UUID, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

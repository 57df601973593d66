package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respond writes the success envelope.
func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"data":       data,
		"message":    message,
		"success":    true,
	})
}

// respondError maps err to its HTTP status and writes the failure envelope.
// Messages of internal errors never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	code := models.CodeInternal
	message := "Internal server error"

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		if status != fiber.StatusInternalServerError {
			message = appErr.Message
		}
	}
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"message":    message,
		"success":    false,
		"code":       code,
	})
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "postId" -> "Invalid post ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = respondError(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "receiverId" -> "receiver ID", "notificationId" -> "notification ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// currentUserID returns the caller resolved by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// pageQuery reads page and limit. Services clamp the values.
func pageQuery(c *fiber.Ctx) (page, limit int) {
	return c.QueryInt("page", 1), c.QueryInt("limit", 0)
}

func sessionInfo(c *fiber.Ctx) service.SessionInfo {
	return service.SessionInfo{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
	}
}

// formUpload reads an optional multipart file. A missing field or a
// non-multipart body yields nil.
func formUpload(c *fiber.Ctx, field string) (*service.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s upload: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

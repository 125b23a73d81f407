package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"leaddesk/internal/validation"
)

// DefaultOperatorHeader carries the operator identity when none is configured.
const DefaultOperatorHeader = "X-Operator"

const operatorKey = "operator"

// OperatorMiddleware reads the operator identity from a request header set by
// the fronting gateway. It does no authentication of its own.
type OperatorMiddleware struct {
	header string
}

// NewOperatorMiddleware creates a middleware reading header.
func NewOperatorMiddleware(header string) *OperatorMiddleware {
	if header == "" {
		header = DefaultOperatorHeader
	}
	return &OperatorMiddleware{header: header}
}

// read returns a copy of the header value; fiber reuses the request buffer
// once the handler returns, and the operator outlives the request in the
// audit log.
func (m *OperatorMiddleware) read(c fiber.Ctx) (string, bool) {
	op := strings.Clone(strings.TrimSpace(c.Get(m.header)))
	if op == "" {
		return "", false
	}
	return op, validation.ValidateOperator(op)
}

// RequireOperator rejects requests without a valid operator header.
func (m *OperatorMiddleware) RequireOperator(c fiber.Ctx) error {
	op, ok := m.read(c)
	if op == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing "+m.header+" header")
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid "+m.header+" header")
	}

	c.Locals(operatorKey, op)
	return c.Next()
}

// Operator returns the operator stored by the middleware, or "".
func Operator(c fiber.Ctx) string {
	op, _ := c.Locals(operatorKey).(string)
	return op
}

package http

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope of every recommendation response.
type APIResponse struct {
	ResultCode int    `json:"result_code"`
	ResultMsg  string `json:"result_msg"`
	RequestID  string `json:"request_id,omitempty"`
}

// newError builds a JSON error envelope with a request ID.
func newError(c *fiber.Ctx, status int, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIResponse{
		ResultCode: status,
		ResultMsg:  message,
		RequestID:  reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, msg)
}

// errInternal returns a 500 error. Causes are logged, never returned.
func errInternal(c *fiber.Ctx) error {
	return newError(c, fiber.StatusInternalServerError, "internal server error")
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, msg)
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error type URI for RFC 7807 problem responses emitted by middleware
const errorTypeRateLimit = "https://kassa.app/errors/rate-limit"

// problemDetails is an RFC 7807 Problem Details body
type problemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// rateLimitError writes a 429 problem response
func rateLimitError(c echo.Context, detail string) error {
	return c.JSON(http.StatusTooManyRequests, problemDetails{
		Type:   errorTypeRateLimit,
		Title:  "Rate Limit Exceeded",
		Status: http.StatusTooManyRequests,
		Detail: detail,
	})
}

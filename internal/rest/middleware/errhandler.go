package middleware

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the envelope returned for any failed request
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler converts errors attached to the gin context into the JSON
// error envelope. Internal error chains are logged but only hints and
// safe details reach the client.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		log.Errorw("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"error", err)

		c.JSON(status, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    ierr.CodeFromErr(err),
				Message: getDisplayMessage(err),
				Details: getSafeDetails(err),
			},
		})
	}
}

// getDisplayMessage returns the first non-empty hint, falling back to a
// generic message so internals never leak
func getDisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// getSafeDetails extracts the structured details attached with
// WithReportableDetails, encoded under the __json__: prefix
func getSafeDetails(err error) map[string]any {
	for _, detail := range errors.GetAllSafeDetails(err) {
		for _, s := range detail.SafeDetails {
			if !strings.HasPrefix(s, "__json__:") {
				continue
			}
			var payload map[string]any
			if jsonErr := json.Unmarshal([]byte(strings.TrimPrefix(s, "__json__:")), &payload); jsonErr == nil {
				return payload
			}
		}
	}
	return nil
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayprice/stayprice/internal/config"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler(log))
	return r
}

func doRequest(r *gin.Engine, path string) (*httptest.ResponseRecorder, ErrorResponse) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestErrorHandlerCarriesLimitExceededCode(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/limit", func(c *gin.Context) {
		c.Error(ierr.NewError("trial property limit exceeded").
			WithHint("Your trial is limited to 10 properties").
			WithReportableDetails(map[string]any{
				"currentCount":    10,
				"maxAllowed":      10,
				"attemptedImport": 1,
				"requiresPayment": true,
			}).
			Mark(ierr.ErrLimitExceeded))
	})

	w, resp := doRequest(r, "/limit")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "LIMIT_EXCEEDED", resp.Error.Code)
	assert.Equal(t, "Your trial is limited to 10 properties", resp.Error.Message)
	assert.EqualValues(t, 10, resp.Error.Details["currentCount"])
	assert.EqualValues(t, 1, resp.Error.Details["attemptedImport"])
	assert.Equal(t, true, resp.Error.Details["requiresPayment"])
}

func TestErrorHandlerCarriesGeoFencingCode(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/fence", func(c *gin.Context) {
		c.Error(ierr.NewError("property outside group geofence").
			WithHint("The property is 2600 m from the group, the maximum is 500 m").
			WithReportableDetails(map[string]any{
				"distance":    2600.0,
				"maxDistance": 500.0,
			}).
			Mark(ierr.ErrGeoFencing))
	})

	w, resp := doRequest(r, "/fence")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "GEO_FENCING_VIOLATION", resp.Error.Code)
	assert.EqualValues(t, 2600, resp.Error.Details["distance"])
	assert.EqualValues(t, 500, resp.Error.Details["maxDistance"])
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/boom", func(c *gin.Context) {
		c.Error(ierr.NewError("pq: connection refused on host db-prod-3").
			Mark(ierr.ErrDatabase))
	})

	w, resp := doRequest(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "db-prod-3")
}

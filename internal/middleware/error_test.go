package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

func setupErrorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())

	r.GET("/prerequisite", func(c *gin.Context) {
		c.Error(apperrors.PrerequisiteNotMet("narrative.missing", "plan.missing"))
	})
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(apperrors.Conflict("a principal diagnosis is already attached"))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Error(apperrors.NotFound("consultation", nil))
	})
	r.GET("/immutable", func(c *gin.Context) {
		c.Error(apperrors.Immutable("consultation can no longer be modified"))
	})
	r.GET("/plain", func(c *gin.Context) {
		c.Error(errors.New("something unexpected"))
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, path string) (int, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestErrorHandlerMapsPrerequisiteFailures(t *testing.T) {
	r := setupErrorRouter()

	status, body := doRequest(t, r, "/prerequisite")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"narrative.missing", "plan.missing"}, body.Reasons)
	assert.NotEmpty(t, body.TraceID)
}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	r := setupErrorRouter()

	status, body := doRequest(t, r, "/conflict")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "a principal diagnosis is already attached", body.Message)

	status, body = doRequest(t, r, "/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "consultation not found", body.Message)

	status, _ = doRequest(t, r, "/immutable")
	assert.Equal(t, http.StatusConflict, status)
}

func TestErrorHandlerDefaultsToInternalError(t *testing.T) {
	r := setupErrorRouter()

	status, _ := doRequest(t, r, "/plain")
	assert.Equal(t, http.StatusInternalServerError, status)
}

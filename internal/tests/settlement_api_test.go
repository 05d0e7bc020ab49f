// internal/tests/settlement_api_test.go
package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/settly-kr/settly-backend/internal/handlers"
	"github.com/settly-kr/settly-backend/internal/middleware"
)

func newTemplateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.I18nMiddleware())

	settlementHandler := handlers.NewSettlementHandler(nil, nil, nil)
	r.GET("/v1/settlements/template", middleware.OptionalAuth(), settlementHandler.DownloadTemplate)

	protected := r.Group("/v1/settlements", middleware.AuthRequired())
	protected.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r
}

func TestTemplateDownload(t *testing.T) {
	r := newTemplateRouter()

	req, _ := http.NewRequest("GET", "/v1/settlements/template", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "settlement_template.csv")

	body := w.Body.Bytes()
	// Excel needs the UTF-8 BOM to open Korean content correctly.
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, body[:3])
	assert.Contains(t, string(body), "barcode,sold_qty,amount")
}

func TestTemplateDownloadIgnoresBadToken(t *testing.T) {
	r := newTemplateRouter()

	// Optional auth: a garbage token must not block the public template.
	req, _ := http.NewRequest("GET", "/v1/settlements/template", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	r := newTemplateRouter()

	req, _ := http.NewRequest("GET", "/v1/settlements", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRejectsMalformedToken(t *testing.T) {
	r := newTemplateRouter()

	req, _ := http.NewRequest("GET", "/v1/settlements", nil)
	req.Header.Set("Authorization", "Token not-a-bearer")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

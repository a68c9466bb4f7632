package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(ProviderCalls.WithLabelValues("test-provider", "error"))
	RecordProviderCall("test-provider", 10*time.Millisecond, errors.New("timeout"))
	after := testutil.ToFloat64(ProviderCalls.WithLabelValues("test-provider", "error"))

	assert.Equal(t, before+1, after)
}

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())
	router.GET("/recipes", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/recipes", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/recipes", "200"))
	assert.Equal(t, before+1, after)
}

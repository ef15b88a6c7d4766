package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestResponseMetaLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var captured map[string]interface{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		captured = ExtractMeta(c)
	})
	router.Use(WithResponseMeta())
	router.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "teachers", 2)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cached", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"cache_hit":true,"teachers":2}`, w.Body.String())
	require.Equal(t, true, captured[cacheHitKey])
	require.Contains(t, captured, elapsedKey)
}

func TestResponseMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	require.Nil(t, ExtractMeta(c))
	SetCacheHit(c, false)
	require.Equal(t, map[string]interface{}{cacheHitKey: false}, ExtractMeta(c))
	require.Nil(t, ExtractMeta(nil))
}

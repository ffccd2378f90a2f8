package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID int, admin bool, secret string) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(testSecret))
	router.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/user", RequireUser(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/admin", RequireUser(), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func request(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthAnonymousPassThrough(t *testing.T) {
	router := testRouter()

	assert.Equal(t, http.StatusOK, request(router, "/public", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "/user", "").Code)
}

func TestAuthValidToken(t *testing.T) {
	router := testRouter()
	token := signToken(t, 42, false, testSecret)

	recorder := request(router, "/user", token)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "42")
}

func TestAuthInvalidToken(t *testing.T) {
	router := testRouter()

	assert.Equal(t, http.StatusUnauthorized, request(router, "/user", "not-a-token").Code)

	wrongKey := signToken(t, 42, false, "other-secret")
	assert.Equal(t, http.StatusUnauthorized, request(router, "/user", wrongKey).Code)
}

func TestAuthExpiredToken(t *testing.T) {
	router := testRouter()

	claims := &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, request(router, "/user", token).Code)
}

func TestRequireAdmin(t *testing.T) {
	router := testRouter()

	user := signToken(t, 42, false, testSecret)
	assert.Equal(t, http.StatusForbidden, request(router, "/admin", user).Code)

	admin := signToken(t, 1, true, testSecret)
	assert.Equal(t, http.StatusOK, request(router, "/admin", admin).Code)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	raw, err := issuer.Issue(42, "seller")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "seller", claims.Role)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	raw, err := other.Issue(1, "buyer")
	require.NoError(t, err)
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err = expired.Issue(1, "buyer")
	require.NoError(t, err)
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("secret", time.Hour)

	router := gin.New()
	router.GET("/me", Middleware(issuer, nil), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "role": Role(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success": false, "message": "common.unauthorized"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success": false, "message": "common.unauthorized"}`, w.Body.String())

	raw, err := issuer.Issue(7, "buyer")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 7, "role": "buyer"}`, w.Body.String())
}

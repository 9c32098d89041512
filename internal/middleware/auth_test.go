package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func runAuth(token string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = JWTAuth(testSecret)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec, c
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{"sub": float64(7), "role": RoleCustomer})
	rec, c := runAuth(token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), c.Get("user_id"))
	assert.Equal(t, RoleCustomer, c.Get("role"))
}

func TestJWTAuthRejectsMissingOrForgedTokens(t *testing.T) {
	rec, _ := runAuth("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged := signedToken(t, "other-secret", jwt.MapClaims{"sub": float64(7)})
	rec, c := runAuth(forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := RequireRole(RoleAdmin)

	cases := []struct {
		role any
		want int
	}{
		{RoleAdmin, http.StatusOK},
		{RoleCustomer, http.StatusForbidden},
		{nil, http.StatusForbidden},
		{42, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if tc.role != nil {
			c.Set("role", tc.role)
		}
		require.NoError(t, mw(next)(c))
		assert.Equal(t, tc.want, rec.Code, "role %v", tc.role)
	}
}

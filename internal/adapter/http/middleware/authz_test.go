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

const testSecret = "unit-secret"

func signToken(t *testing.T, secret string, perms []string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":       "gorder-seed",
		"aud":       "seed-api",
		"exp":       exp.Unix(),
		"client_id": "ops",
		"perms":     perms,
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthz_Require(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthz(testSecret, "gorder-seed", "seed-api")
	r := gin.New()
	r.POST("/runs", a.Require("seed:run"), func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})

	future := time.Now().Add(time.Hour)
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", []string{"seed:run"}, future), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, []string{"seed:run"}, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"missing perm", "Bearer " + signToken(t, testSecret, []string{"seed:read"}, future), http.StatusForbidden},
		{"ok", "Bearer " + signToken(t, testSecret, []string{"seed:run", "seed:read"}, future), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/runs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "ops", w.Body.String())
			} else {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

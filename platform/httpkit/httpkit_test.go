package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"b2b_marketplace_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretConfig string

func (s secretConfig) GetJWTAccessSecret() string { return string(s) }

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthEngine(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(secretConfig(secret)), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"id": id.UserID().String(), "name": id.DisplayName(), "buyer": id.HasRole("buyer")})
	})
	return r
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, "s3cret", jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"name":  "Ada Buyer",
		"roles": []string{"buyer"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newAuthEngine("s3cret").ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["id"])
	assert.Equal(t, "Ada Buyer", body["name"])
	assert.Equal(t, true, body["buyer"])
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	valid := jwt.MapClaims{"sub": uuid.NewString(), "type": "access", "exp": time.Now().Add(time.Hour).Unix()}
	refresh := jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong secret", "Bearer " + signToken(t, "other", valid)},
		{"refresh token", "Bearer " + signToken(t, "s3cret", refresh)},
		{"malformed", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthEngine("s3cret").ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"typed", apperr.Expired("quote has expired"), http.StatusGone, "expired"},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.Forbidden("not the buyer")), http.StatusForbidden, "forbidden"},
		{"untyped", errors.New("pq: connection reset"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			assert.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.code, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Code)
			assert.NotContains(t, body.Error, "pq:")
		})
	}
}

func TestIfMatchVersion(t *testing.T) {
	tests := []struct {
		header  string
		version int64
		ok      bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"*", 0, false, false},
		{`W/"7"`, 7, true, false},
		{`"12"`, 12, true, false},
		{"abc", 0, false, true},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("If-Match", tt.header)
		}
		version, ok, err := IfMatchVersion(c)
		if tt.wantErr {
			assert.True(t, apperr.Is(err, apperr.KindValidation), tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.version, version, tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
	}
}

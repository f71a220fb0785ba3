package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAttachesIdentity(t *testing.T) {
	userID := uuid.New()
	var got Identity
	var ok bool

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, userID.String())
	req.Header.Set(HeaderAdmin, "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, ok)
	assert.Equal(t, userID, got.UserID)
	assert.True(t, got.IsAdmin)
}

func TestMiddlewareRejectsMissingIdentity(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNonAdminByDefault(t *testing.T) {
	var got Identity
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, uuid.NewString())
	req.Header.Set(HeaderAdmin, "TRUE")
	h.ServeHTTP(httptest.NewRecorder(), req)

	// Only the exact lowercase "true" grants admin.
	assert.False(t, got.IsAdmin)
}

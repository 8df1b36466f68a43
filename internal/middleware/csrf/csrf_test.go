package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPrefixes: []string{"/ext/"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/thing", ok)
	e.POST("/thing", ok)
	e.POST("/ext/sync", ok)
	return e
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "XSRF-TOKEN" {
			return c
		}
	}
	t.Fatal("no XSRF-TOKEN cookie")
	return nil
}

func TestSafeMethodIssuesToken(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	ck := csrfCookie(t, rec)
	assert.NotEmpty(t, ck.Value)
	assert.Equal(t, ck.Value, rec.Header().Get("X-CSRF-Token"))
	assert.False(t, ck.HttpOnly)
}

func TestUnsafeMethodNeedsTokenAndOrigin(t *testing.T) {
	e := newServer()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))
	ck := csrfCookie(t, rec)

	cases := []struct {
		name   string
		origin string
		token  string
		want   int
	}{
		{"no origin", "", ck.Value, http.StatusForbidden},
		{"foreign origin", "http://evil.example", ck.Value, http.StatusForbidden},
		{"missing token", "http://example.com", "", http.StatusForbidden},
		{"wrong token", "http://example.com", "nope", http.StatusForbidden},
		{"ok", "http://example.com", ck.Value, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/thing", nil)
		req.AddCookie(ck)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if tc.token != "" {
			req.Header.Set("X-CSRF-Token", tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.name)
	}
}

func TestSkippedPrefix(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ext/sync", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

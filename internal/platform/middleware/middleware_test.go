package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestID_Generated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be set on context")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PassThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		if got, _ := c.Get("request_id").(string); got != "upstream-id" {
			t.Errorf("request_id = %q, want upstream-id", got)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}

func TestRateLimit_Exceeded(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var lastErr error
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		lastErr = h(c)
	}

	he, ok := lastErr.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError after burst exhausted, got %v", lastErr)
	}
	if he.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", he.Code)
	}
}

func TestRateLimit_SeparateKeys(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := h(c); err != nil {
			t.Errorf("first request from %s should pass: %v", ip, err)
		}
	}
}

func TestRequestTimeout_Exceeded(t *testing.T) {
	e := echo.New()
	mw := RequestTimeout(20 * time.Millisecond)
	h := mw(func(c echo.Context) error {
		select {
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		case <-time.After(500 * time.Millisecond):
			return c.NoContent(http.StatusOK)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", he.Code)
	}
}

func TestRequestTimeout_CompletesInTime(t *testing.T) {
	e := echo.New()
	mw := RequestTimeout(time.Second)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

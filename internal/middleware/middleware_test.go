package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bakery-bookings/internal/config"
	"github.com/iliyamo/bakery-bookings/internal/utils"
)

const secret = "test-secret"

func newEcho() *echo.Echo {
	e := echo.New()
	e.GET("/who", func(c echo.Context) error {
		id, _ := UserIDFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": RoleFrom(c)})
	}, JWTAuth(secret), RequireRole("ADMIN"))
	return e
}

func TestJWTAuthAndRole(t *testing.T) {
	adminTok, err := utils.NewAccessToken(secret, 1, "ADMIN", 5)
	if err != nil {
		t.Fatal(err)
	}
	custTok, _ := utils.NewAccessToken(secret, 2, "CUSTOMER", 5)
	forged, _ := utils.NewAccessToken("other-secret", 1, "ADMIN", 5)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged.Token, http.StatusUnauthorized},
		{"customer", "Bearer " + custTok.Token, http.StatusForbidden},
		{"admin", "Bearer " + adminTok.Token, http.StatusOK},
	}
	e := newEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, _ := utils.NewAccessToken(secret, 3, "CUSTOMER", -1)
	if _, _, err := ParseAccessToken(secret, tok.Token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestLocalRateLimitFallback(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.POST("/book", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, nil, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/book", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 && rec.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After on blocked request")
		}
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second client = %d", rec.Code)
	}
}

// Two server instances pointed at the same Redis draw from one bucket.
func TestRedisRateLimitSharedAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "test:rl",
	}
	newInstance := func() *echo.Echo {
		e := echo.New()
		e.POST("/book", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewTokenBucket(cfg, rdb, nil))
		return e
	}
	a, b := newInstance(), newInstance()

	codes := make([]int, 0, 3)
	for _, e := range []*echo.Echo{a, b, a} {
		req := httptest.NewRequest(http.MethodPost, "/book", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "test:rl") {
		t.Fatalf("redis keys = %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 {
		t.Fatalf("bucket has no expiry: %s", ttl)
	}
}

func TestLocalLimiterRefills(t *testing.T) {
	l := newLocalLimiter(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute})
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	if !l.take("k", now).allowed {
		t.Fatal("first take denied")
	}
	d := l.take("k", now)
	if d.allowed || d.retryAfter <= 0 {
		t.Fatalf("second take = %+v", d)
	}
	if !l.take("k", now.Add(time.Second)).allowed {
		t.Fatal("not refilled after interval")
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:5]); ok {
		t.Fatal("short payload accepted")
	}
}

func TestDisabledCachePassesThrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, nil)
	e := echo.New()
	e.GET("/r", func(c echo.Context) error { return c.String(http.StatusOK, "hi") }, rc.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("code=%d x-cache=%q", rec.Code, rec.Header().Get("X-Cache"))
	}
	if err := rc.Purge(context.Background()); err != nil {
		t.Fatal(err)
	}
}

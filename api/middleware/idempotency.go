package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	adminOrderIdempotencyTTL = 24 * time.Hour
	checkoutIdempotencyTTL   = 7 * 24 * time.Hour
	// a reservation left by a crashed request frees the key after this long
	inFlightTTL          = 2 * time.Minute
	maxIdempotencyKeyLen = 255

	replayedHeader = "Idempotent-Replayed"
)

type idempotencyRoute struct {
	method string
	path   string
	ttl    time.Duration
}

// Only order-creating endpoints are deduplicated.
var idempotencyRoutes = []idempotencyRoute{
	{method: http.MethodPost, path: "/api/checkout", ttl: checkoutIdempotencyTTL},
	{method: http.MethodPost, path: "/api/admin/orders", ttl: adminOrderIdempotencyTTL},
}

type recordState string

const (
	stateInFlight recordState = "in_flight"
	stateComplete recordState = "complete"
)

type idempotencyRecord struct {
	State       recordState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        string      `json:"body,omitempty"`
}

// Idempotency deduplicates order-creating requests that carry an
// Idempotency-Key header. The key is reserved before the handler runs, so a
// concurrent duplicate gets 409 instead of creating a second order. Responses
// below 500 are replayed for the route's TTL; a 5xx releases the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r)
			headerKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if !ok || store == nil || headerKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(headerKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(idempotencyScope(r), headerKey)

			reserved, err := store.SetNX(ctx, key, encodeRecord(idempotencyRecord{State: stateInFlight, RequestHash: hash}), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayOrReject(ctx, store, logg, w, key, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}
			record := idempotencyRecord{
				State:       stateComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			}
			if err := store.Set(ctx, key, encodeRecord(record), ttl); err != nil {
				logError(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

func replayOrReject(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, hash string) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// released between SetNX and Get; the client may simply retry
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != stateComplete:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
			_, _ = w.Write(decoded)
		}
	}
}

// idempotencyTTL matches the full route pattern when chi has resolved it, and
// the raw path when the middleware runs on a parent router.
func idempotencyTTL(r *http.Request) (time.Duration, bool) {
	candidates := []string{r.URL.Path}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			candidates = append([]string{pattern}, candidates...)
		}
	}
	for _, candidate := range candidates {
		if ttl, ok := routeTTL(r.Method, strings.TrimSuffix(candidate, "/")); ok {
			return ttl, true
		}
	}
	return 0, false
}

func routeTTL(method, path string) (time.Duration, bool) {
	for _, route := range idempotencyRoutes {
		if route.method == method && route.path == path {
			return route.ttl, true
		}
	}
	return 0, false
}

func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, strings.TrimSuffix(r.URL.Path, "/")}, "|")
}

func encodeRecord(record idempotencyRecord) string {
	b, _ := json.Marshal(record)
	return string(b)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}

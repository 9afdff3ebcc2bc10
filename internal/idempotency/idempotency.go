package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/canteen/internal/logging"
)

const (
	Header         = "Idempotency-Key"
	ReplayedHeader = "Idempotent-Replayed"
)

const keyPrefix = "idem:"

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Response is a stored HTTP response replayed for repeated keys.
// Fingerprint identifies the request body that produced it.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Fingerprint is the hex sha256 of a request body.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type Store interface {
	Get(ctx context.Context, key string) (*Response, bool, error)
	// Put stores resp unless key already holds a response.
	Put(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Response, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, resp Response, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, keyPrefix+key, data, ttl).Err()
}

type captureWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware replays the first successful response for a repeated
// Idempotency-Key on the same route. Reusing a key with a different body is
// rejected with 422. Requests without the header pass through. Store
// failures are logged and the request is served normally.
func Middleware(store Store, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := Key(c.Request())
			if key == "" {
				return next(c)
			}

			req := c.Request()
			ctx := req.Context()
			l := logging.FromContext(ctx)
			scoped := req.Method + " " + c.Path() + " " + key

			var body []byte
			if req.Body != nil {
				b, err := io.ReadAll(req.Body)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, "cannot read body").SetInternal(err)
				}
				body = b
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := Fingerprint(body)

			saved, ok, err := store.Get(ctx, scoped)
			if err != nil {
				l.Warn("idempotency_lookup_error", "reason", "store unavailable", "error", err)
			}
			if ok {
				if saved.Fingerprint != fp {
					l.Warn("idempotency_key_reused", "status", http.StatusUnprocessableEntity, "reason", "different request body")
					return echo.NewHTTPError(http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				}
				c.Response().Header().Set(ReplayedHeader, "true")
				return c.Blob(saved.Status, saved.ContentType, saved.Body)
			}

			res := c.Response()
			cw := &captureWriter{ResponseWriter: res.Writer}
			res.Writer = cw
			err = next(c)
			res.Writer = cw.ResponseWriter

			if err != nil || !res.Committed || res.Status >= http.StatusInternalServerError {
				return err
			}

			resp := Response{
				Status:      res.Status,
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
				Fingerprint: fp,
			}
			if perr := store.Put(ctx, scoped, resp, ttl); perr != nil {
				l.Warn("idempotency_store_error", "reason", "cannot save response", "error", perr)
			}
			return nil
		}
	}
}

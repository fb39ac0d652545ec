package middleware

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

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/mealdash-backend/api/responses"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/mealdash-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"
	maxIdempotencyKey = 255

	DefaultIdempotencyTTL  = 24 * time.Hour
	CriticalIdempotencyTTL = 7 * 24 * time.Hour

	// inFlightTTL bounds how long a crashed request can block its key.
	inFlightTTL = 2 * time.Minute
)

type entryState string

const (
	stateInFlight  entryState = "in_flight"
	stateCompleted entryState = "completed"
)

// idempotencyEntry is the JSON value stored under an idempotency key.
type idempotencyEntry struct {
	State       entryState `json:"state"`
	Fingerprint string     `json:"fingerprint"`
	Status      int        `json:"status,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Body        []byte     `json:"body,omitempty"`
}

// Idempotency requires an Idempotency-Key header on mutating routes. The first
// request claims the key, later requests with the same key and body replay its
// response, and a body mismatch or a still-running original is rejected with
// CodeIdempotency. Keys are scoped to actor, method and path. 5xx responses
// release the key so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			switch {
			case clientKey == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			case len(clientKey) > maxIdempotencyKey:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(requestScope(r), clientKey)
			fingerprint := fingerprintBody(body)

			claimed, existing, err := claimKey(ctx, store, key, fingerprint)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if !claimed {
				switch {
				case existing.Fingerprint != fingerprint:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case existing.State != stateCompleted:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
				default:
					replay(w, existing)
				}
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if err := store.Del(ctx, key); err != nil {
				logg.Error(ctx, "release idempotency claim", err)
				return
			}
			if status >= http.StatusInternalServerError {
				return
			}
			record, err := json.Marshal(idempotencyEntry{
				State:       stateCompleted,
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(record), ttl)
			}
			if err != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

// claimKey takes the key with an in-flight marker or returns the entry that
// already holds it. A marker that expires between the two calls is retried
// once.
func claimKey(ctx context.Context, store pkgredis.IdempotencyStore, key, fingerprint string) (bool, *idempotencyEntry, error) {
	marker, err := json.Marshal(idempotencyEntry{State: stateInFlight, Fingerprint: fingerprint})
	if err != nil {
		return false, nil, err
	}
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := store.SetNX(ctx, key, string(marker), inFlightTTL)
		if err != nil || ok {
			return ok, nil, err
		}
		raw, err := store.Get(ctx, key)
		if errors.Is(err, pkgredis.Nil) {
			continue
		}
		if err != nil {
			return false, nil, err
		}
		var entry idempotencyEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return false, nil, err
		}
		return false, &entry, nil
	}
	return false, nil, errors.New("idempotency key contended")
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

func requestScope(r *http.Request) string {
	return ActorIDFromContext(r.Context()).String() + "|" + r.Method + "|" + r.URL.Path
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

type contextKey string

const callerKey contextKey = "caller"

// caller is the authenticated identity for one request: the raw provider
// key (request-scoped, never persisted) and the sha256 owner hash that keys
// every store read and write.
type caller struct {
	ProviderKey string
	OwnerHash   string
}

type authMiddleware struct{}

func newAuthMiddleware() *authMiddleware {
	return &authMiddleware{}
}

// extractMiddleware pulls the provider API key from Authorization: Bearer or
// the X-Provider-Api-Key header. No key, no access: every /v1 route is
// owner-scoped.
func (auth *authMiddleware) extractMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		key := extractProviderKey(req)
		if key == "" {
			system.WriteError(res, types.NewUnauthorizedError(
				"provide your GPU provider API key as 'Authorization: Bearer <key>' or 'X-Provider-Api-Key'"))
			return
		}

		ctx := context.WithValue(req.Context(), callerKey, &caller{
			ProviderKey: key,
			OwnerHash:   system.HashOwnerKey(key),
		})
		next.ServeHTTP(res, req.WithContext(ctx))
	})
}

func extractProviderKey(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token != header {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(req.Header.Get("X-Provider-Api-Key"))
}

func getCaller(req *http.Request) *caller {
	c, _ := req.Context().Value(callerKey).(*caller)
	return c
}

// requireInternalSecret guards the worker callback route. With no secret
// configured the check is disabled, which is only sane in local dev.
func (apiServer *VisgateAPIServer) requireInternalSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		secret := apiServer.Cfg.WebServer.InternalSecret
		if secret != "" && req.Header.Get("X-Internal-Secret") != secret {
			system.WriteError(res, types.NewUnauthorizedError("invalid internal secret"))
			return
		}
		next.ServeHTTP(res, req)
	})
}

// requestIDMiddleware tags every request with an id, echoed in the
// response and attached to the request-scoped logger.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		requestID := req.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		res.Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		next.ServeHTTP(res, req.WithContext(logger.WithContext(req.Context())))
	})
}

func errorLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: res, status: http.StatusOK}
		next.ServeHTTP(recorder, req)
		if recorder.status >= http.StatusInternalServerError {
			log.Error().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", recorder.status).
				Msg("request failed")
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush passes through so the SSE stream still works behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

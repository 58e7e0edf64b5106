// Package httpserver exposes the HTTP surface for voice-call sessions: call
// lifecycle, the utterance webhook, and the websocket transport.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/voxdesk/voxdesk/internal/dialogue"
	"github.com/voxdesk/voxdesk/internal/observability"
	"github.com/voxdesk/voxdesk/lib/async"
)

const (
	maxJSONBodyBytes int64 = 1 << 20 // 1 MiB

	startCallPath = "/start_call"
	healthPath    = "/health"

	endCallPrefix = "/end_call/"
	webhookPrefix = "/webhook/"
	wsPrefix      = "/ws/"
)

type handlerFunc func(http.ResponseWriter, *http.Request)

// Options configures the HTTP handler.
type Options struct {
	Engine  *dialogue.Engine
	Logger  observability.Logger
	Limiter *rate.Limiter
	Tasks   *async.Pool
}

type httpServer struct {
	engine *dialogue.Engine
	log    observability.Logger
	tasks  *async.Pool
}

type utterancePayload struct {
	Utterance string `json:"utterance"`
}

type callStartedPayload struct {
	CallID  string `json:"call_id"`
	Message string `json:"message"`
}

type replyPayload struct {
	Message string `json:"message"`
	Ended   bool   `json:"ended"`
}

// NewHandler wires the session endpoints onto a mux.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Log()
	}
	server := &httpServer{engine: opts.Engine, log: logger, tasks: opts.Tasks}
	mux := http.NewServeMux()

	mux.Handle(startCallPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.startCall,
	}))
	mux.Handle(endCallPrefix, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.endCall,
	}))
	mux.Handle(webhookPrefix, server.methodHandlers(map[string]handlerFunc{
		http.MethodPost: server.webhook,
	}))
	mux.Handle(wsPrefix, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.serveWS,
	}))
	mux.Handle(healthPath, server.methodHandlers(map[string]handlerFunc{
		http.MethodGet: server.health,
	}))

	handler := withCORS(mux)
	if opts.Limiter != nil {
		handler = withRateLimit(opts.Limiter, handler)
	}
	return handler
}

type startCallRequest struct {
	UserName string `json:"user_name"`
}

func (s *httpServer) startCall(w http.ResponseWriter, r *http.Request) {
	id, greeting, err := s.engine.StartSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	limitRequestBody(w, r)
	var payload startCallRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr == nil {
		if name := strings.TrimSpace(payload.UserName); name != "" {
			if err := s.engine.SetUserName(r.Context(), id, name); err != nil {
				s.log.Error("record caller name",
					observability.F("session", id),
					observability.F("error", err))
			}
		}
	}

	if s.tasks != nil {
		// Provisioning against the speech provider happens off the request
		// path; the caller already has its greeting.
		callID := id
		if err := s.tasks.Submit(context.Background(), func(context.Context) error {
			s.log.Info("call provisioning complete", observability.F("session", callID))
			return nil
		}); err != nil {
			s.log.Error("call provisioning not scheduled",
				observability.F("session", callID),
				observability.F("error", err))
		}
	}

	writeJSON(w, http.StatusOK, callStartedPayload{CallID: id, Message: greeting})
}

func (s *httpServer) endCall(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, endCallPrefix)
	if id == "" {
		writeError(w, http.StatusNotFound, "call id required")
		return
	}
	if err := s.engine.EndSession(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended", "call_id": id})
}

func (s *httpServer) webhook(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, webhookPrefix)
	if id == "" {
		writeError(w, http.StatusNotFound, "call id required")
		return
	}

	limitRequestBody(w, r)
	payload, err := decodeUtterance(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(payload.Utterance) == "" {
		writeError(w, http.StatusBadRequest, "utterance required")
		return
	}

	reply, err := s.engine.ProcessUtterance(r.Context(), id, payload.Utterance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ended, err := s.engine.Ended(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, replyPayload{Message: reply, Ended: ended})
	if ended {
		s.cleanupEndedCall(r.Context(), id)
	}
}

// cleanupEndedCall drops a session that reached its terminal state, so
// callers that never post /end_call do not accumulate dead sessions.
func (s *httpServer) cleanupEndedCall(ctx context.Context, id string) {
	if err := s.engine.EndSession(ctx, id); err != nil {
		s.log.Error("ended-call cleanup failed",
			observability.F("session", id),
			observability.F("error", err))
	}
}

func (s *httpServer) health(w http.ResponseWriter, r *http.Request) {
	active, err := s.engine.ActiveSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": active,
	})
}

func (s *httpServer) methodHandlers(handlers map[string]handlerFunc) http.Handler {
	allowed := allowedMethods(handlers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler(w, r)
			return
		}
		methodNotAllowed(w, allowed...)
	})
}

func allowedMethods(handlers map[string]handlerFunc) []string {
	if len(handlers) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	return allowed
}

func pathSuffix(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

func decodeUtterance(r *http.Request) (utterancePayload, error) {
	defer func() {
		_ = r.Body.Close()
	}()
	var payload utterancePayload
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func limitRequestBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if isRequestTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func isRequestTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": message})
}

func withCORS(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func withRateLimit(limiter *rate.Limiter, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		handler.ServeHTTP(w, r)
	})
}

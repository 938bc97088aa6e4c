package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomcheck/internal/api"
	"roomcheck/internal/config"
	"roomcheck/internal/imaging"
	"roomcheck/internal/inspection"
	"roomcheck/internal/logging"
	"roomcheck/internal/recordsync"
	"roomcheck/internal/refine"
	"roomcheck/internal/roster"
	"roomcheck/internal/store"
)

const (
	maxLongPoll  = 25 * time.Second
	maxJSONBody  = 16 << 20
	maxPhotoBody = 32 << 20
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.Paths.APIToken)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      maxLongPoll + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/inspections", s.handleSnapshot)
	mux.HandleFunc("POST /api/inspections", s.handleSubmit)
	mux.HandleFunc("DELETE /api/inspections", s.handleDeleteAll)
	mux.HandleFunc("GET /api/inspections/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/inspections/{id}", s.handleSubmit)
	mux.HandleFunc("DELETE /api/inspections/{id}", s.handleDelete)
	mux.HandleFunc("PATCH /api/inspections/{id}/staff", s.handlePatchStaff)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/refine", s.handleRefine)
	mux.HandleFunc("POST /api/report", s.handleReport)

	mux.HandleFunc("GET /api/roster", s.handleRoster)
	mux.HandleFunc("POST /api/roster", s.handleRosterAdd)
	mux.HandleFunc("DELETE /api/roster/{name}", s.handleRosterRemove)

	mux.HandleFunc("GET /api/logs", s.handleLogs)

	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/templates", s.handleTemplates)
	mux.HandleFunc("POST /api/photos/compress", s.handleCompress)
	mux.HandleFunc("POST /api/photos/annotate", s.handleAnnotate)

	return s.withRequestID(authMiddleware(token, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(api.HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(api.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind})
}

// writeFailure maps a domain error onto a status code. Unavailability is
// logged since it usually means the store or the oracle needs attention.
func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.log()), op+" failed", "api_request_failed",
			logging.Error(err),
			logging.Int("status", status),
		)
	}
	s.writeError(w, status, kind, err.Error())
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, recordsync.ErrWrongPassphrase):
		return http.StatusForbidden, "validation"
	case inspection.IsValidation(err),
		errors.Is(err, roster.ErrEmptyName),
		errors.Is(err, imaging.ErrDecode),
		errors.Is(err, imaging.ErrNotLoaded):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, recordsync.ErrNotFound):
		return http.StatusNotFound, "rejected"
	case errors.Is(err, recordsync.ErrRejected), errors.Is(err, store.ErrReadOnly):
		return http.StatusConflict, "rejected"
	case errors.Is(err, recordsync.ErrUnavailable), errors.Is(err, refine.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}

package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string
	// PublicURL is the address players use to reach the server; it is
	// encoded in the /api/qr image. Derived from the request when empty.
	PublicURL string
	// RequestTimeout bounds every non-websocket handler.
	RequestTimeout time.Duration
}

// Server serves the ranking API.
type Server struct {
	config  ServerConfig
	r       *chi.Mux
	service *Service
	hub     *Hub
	auth    *Auth
	logger  *log.Logger
	now     func() time.Time
}

// NewServer installs middleware and registers routes.
func NewServer(cfg ServerConfig, service *Service, hub *Hub, auth *Auth, logger *log.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	s := &Server{
		config:  cfg,
		r:       chi.NewRouter(),
		service: service,
		hub:     hub,
		auth:    auth,
		logger:  logger,
		now:     time.Now,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(s.requestLogger)
	s.r.Use(chimw.Recoverer)

	s.r.Route("/api", func(r chi.Router) {
		// The websocket stays open past the request timeout.
		r.Get("/ranking/ws", s.hub.ServeWS)
		r.Get("/qr", s.handleQR)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
			r.Use(jsonContentType)

			r.Get("/health", s.handleHealth)
			r.Get("/ranking/global", s.handleGlobal)
			r.Get("/ranking/player/{name}", s.handlePlayer)
			r.With(s.auth.requireToken()).Post("/ranking", s.handleSubmit)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return s
}

// Handler exposes the router (useful for tests).
func (s *Server) Handler() http.Handler { return s.r }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	limit := MaxGlobalEntries
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.service.Global(r.Context(), r.URL.Query().Get("difficulty"), limit)
	if err != nil {
		s.fail(w, r, err, "failed to load global ranking")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Player(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err, "failed to load player ranking")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid data")
		return
	}

	if player, ok := tokenPlayer(r); ok && !strings.EqualFold(player, strings.TrimSpace(sub.PlayerName)) {
		writeError(w, http.StatusForbidden, "token does not match player name")
		return
	}

	e, err := s.service.Submit(r.Context(), sub)
	if err != nil {
		s.fail(w, r, err, "failed to save score")
		return
	}
	s.logger.Info("score submitted", "player", e.PlayerName, "score", e.Score, "difficulty", e.Difficulty)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "score saved"})
}

// handleQR renders a PNG QR code pointing at the public server URL.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	url := s.config.PublicURL
	if url == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		url = scheme + "://" + r.Host
	}

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// fail maps service errors to responses: validation errors are 400, the
// rest are logged and reported as 500 with msg.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var v *ValidationError
	if errors.As(err, &v) {
		writeError(w, http.StatusBadRequest, v.Message)
		return
	}
	s.logger.Error(msg, "error", err, "request_id", chimw.GetReqID(r.Context()))
	writeError(w, http.StatusInternalServerError, msg)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

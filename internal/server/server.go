// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/quantmind-br/url2bibtex-go/internal/config"
	"github.com/quantmind-br/url2bibtex-go/internal/converter"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
	"github.com/quantmind-br/url2bibtex-go/pkg/version"
)

// convertRequest is the POST /convert body.
type convertRequest struct {
	URL string `json:"url"`
}

// convertResponse is returned on successful conversion.
type convertResponse struct {
	URL     string `json:"url"`
	BibTeX  string `json:"bibtex"`
	Success bool   `json:"success"`
}

// errorResponse is returned on any failure.
type errorResponse struct {
	URL     string `json:"url,omitempty"`
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Handlers int    `json:"handlers"`
}

type handlerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type handlersResponse struct {
	Handlers []handlerInfo `json:"handlers"`
}

// Server serves the conversion API.
type Server struct {
	cfg       config.ServerConfig
	converter *converter.Converter
	logger    *utils.Logger
	router    *mux.Router
	srv       *http.Server
}

// New creates a Server around the given converter.
func New(cfg config.ServerConfig, conv *converter.Converter, logger *utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	s := &Server{
		cfg:       cfg,
		converter: conv,
		logger:    logger.WithComponent("server"),
		router:    mux.NewRouter(),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/handlers", s.handleHandlers).Methods(http.MethodGet)
	s.router.HandleFunc("/convert", s.handleConvertPost).Methods(http.MethodPost)
	s.router.HandleFunc("/convert", s.handleConvertGet).Methods(http.MethodGet)
	s.router.Use(s.logRequests)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "URL to BibTeX Converter API",
		"version": version.Version,
		"endpoints": map[string]string{
			"convert":  "/convert",
			"health":   "/health",
			"handlers": "/handlers",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Handlers: s.converter.Registry().Len(),
	})
}

func (s *Server) handleHandlers(w http.ResponseWriter, r *http.Request) {
	var infos []handlerInfo
	for _, h := range s.converter.Registry().List() {
		infos = append(infos, handlerInfo{
			Name:        h.Name(),
			Description: h.Description(),
		})
	}
	writeJSON(w, http.StatusOK, handlersResponse{Handlers: infos})
}

func (s *Server) handleConvertPost(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "invalid request body",
		})
		return
	}
	s.convert(w, r, req.URL)
}

func (s *Server) handleConvertGet(w http.ResponseWriter, r *http.Request) {
	s.convert(w, r, r.URL.Query().Get("url"))
}

// convert runs a conversion and maps the failure contract onto HTTP
// statuses: unsupported or malformed input is the client's fault (400), a
// claimed URL that fails to extract is ours (500).
func (s *Server) convert(w http.ResponseWriter, r *http.Request, url string) {
	if url == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "missing url",
		})
		return
	}

	entry, err := s.converter.Convert(r.Context(), url)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnsupportedURL) || errors.Is(err, domain.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{
			URL:   url,
			Error: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		URL:     url,
		BibTeX:  entry,
		Success: true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depgraph/pkg/config"
	"github.com/matzehuels/depgraph/pkg/engine"
	"github.com/matzehuels/depgraph/pkg/errors"
	depio "github.com/matzehuels/depgraph/pkg/io"
	"github.com/matzehuels/depgraph/pkg/snapshot"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	maxEventsBody   = 256 << 20
	shutdownTimeout = 10 * time.Second
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect resolution events over HTTP",
		Long: `Run an HTTP collector for resolution event streams.

Routes:
  POST /v1/events    NDJSON event stream, merged into the current extraction
  POST /v1/snapshot  finish the extraction, write and return the snapshot
  GET  /healthz      liveness check

Each POST /v1/snapshot starts a fresh extraction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateSnapshot(); err != nil {
				return err
			}
			srv, err := newCollector(cfg, loggerFromContext(ctx))
			if err != nil {
				return err
			}
			return srv.listen(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}

// collector feeds HTTP event streams into one extraction at a time.
type collector struct {
	cfg    *config.Config
	logger *log.Logger

	// mu is held shared for a whole event stream and exclusively while the
	// extraction is swapped, so a stream never straddles two snapshots.
	mu sync.RWMutex
	ex *engine.Extractor
}

func newCollector(cfg *config.Config, logger *log.Logger) (*collector, error) {
	ex, err := engine.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &collector{cfg: cfg, logger: logger, ex: ex}, nil
}

func (s *collector) listen(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("collector listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
		s.logger.Info("shutting down collector")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *collector) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", s.handleEvents)
		r.Post("/snapshot", s.handleSnapshot)
	})
	return r
}

func (s *collector) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type eventsResponse struct {
	Batch   string `json:"batch"`
	Schema  int    `json:"schema"`
	Events  int    `json:"events"`
	Skipped int    `json:"skipped"`
}

func (s *collector) handleEvents(w http.ResponseWriter, r *http.Request) {
	batch := uuid.New().String()
	logger := s.logger.With("batch", batch)

	body := http.MaxBytesReader(w, r.Body, maxEventsBody)
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, err := depio.Dispatch(r.Context(), body, s.ex, logger)
	if err != nil {
		logger.Warn("rejected event stream", "err", err, "delivered", stats.Events)
		if stats.Events > 0 {
			// Part of the stream already reached the extraction.
			s.ex.Fail(fmt.Errorf("batch %s: %w", batch, err))
		}
		writeError(w, err)
		return
	}
	logger.Debug("accepted event stream", "events", stats.Events, "skipped", stats.Skipped)
	writeJSON(w, http.StatusAccepted, eventsResponse{
		Batch:   batch,
		Schema:  stats.Schema,
		Events:  stats.Events,
		Skipped: stats.Skipped,
	})
}

func (s *collector) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	next, err := engine.New(s.cfg, s.logger)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	ex := s.ex
	s.ex = next
	s.mu.Unlock()

	snap, err := ex.Finish(r.Context(), ex.Params(time.Now()))
	if err != nil {
		for _, cause := range errors.Causes(err) {
			s.logger.Error("extraction failed", "err", cause)
		}
		writeError(w, err)
		return
	}
	path, err := snapshot.WriteFile(s.cfg.ReportDir, snap)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("wrote snapshot", "path", path, "manifests", len(snap.Manifests), "components", snap.ComponentCount())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-Path", path)
	w.WriteHeader(http.StatusOK)
	_ = snapshot.Encode(w, snap)
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Causes  []string `json:"causes,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp := errorResponse{Code: string(code), Message: errors.UserMessage(err)}
	if code == errors.ErrCodeExtractionFailed {
		for _, cause := range errors.Causes(err) {
			resp.Causes = append(resp.Causes, cause.Error())
		}
	}
	writeJSON(w, statusFor(err, code), resp)
}

func statusFor(err error, code errors.Code) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch code {
	case errors.ErrCodeInvalidEvent, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeExtractionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is what the status endpoints report on.
type StatusSource interface {
	State() domain.State
	Alive() bool
	PID() int
}

// health is the /healthz body.
type health struct {
	Alive bool `json:"alive"`
	PID   int  `json:"pid"`
}

// eventView is one /events entry.
type eventView struct {
	domain.CommandEvent
	Error string `json:"error,omitempty"`
}

// NewStatusHandler serves metrics, liveness, cached state and recent requests.
// A nil journal disables /events.
func NewStatusHandler(src StatusSource, gatherer prometheus.Gatherer, journal *observability.Journal) http.Handler {
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := health{Alive: src.Alive(), PID: src.PID()}
		status := http.StatusOK
		if !h.Alive {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	})

	r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.State())
	})

	if journal != nil {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			events := journal.Snapshot()
			views := make([]eventView, 0, len(events))
			for _, e := range events {
				v := eventView{CommandEvent: e}
				if e.Err != nil {
					v.Error = e.Err.Error()
				}
				views = append(views, v)
			}
			writeJSON(w, http.StatusOK, views)
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Status server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

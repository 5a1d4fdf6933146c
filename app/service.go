// Package app wires configuration, the model store, training and the
// HTTP API into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apidispatch "github.com/kilianp07/dispatchml/api/dispatch"
	"github.com/kilianp07/dispatchml/config"
	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
	"github.com/kilianp07/dispatchml/core/store"
	"github.com/kilianp07/dispatchml/core/training"
	"github.com/kilianp07/dispatchml/infra/announce"
	"github.com/kilianp07/dispatchml/infra/logger"
	"github.com/kilianp07/dispatchml/infra/metrics"
	"github.com/kilianp07/dispatchml/internal/eventbus"
)

// Service holds the wired components of the dispatch scoring service.
type Service struct {
	cfg   *config.Config
	log   logger.Logger
	store *store.Store
	orch  *training.Orchestrator
	bus   *eventbus.Bus
	ann   *announce.Announcer
	sink  coremetrics.Sink
}

// New creates a Service from the configuration. The model is loaded
// eagerly; a missing artifact is logged, not fatal, since training can
// produce one later.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	st := store.New(cfg.Model.Path, logger.New("model-store"))
	if st.Load(false) {
		logg.Infof("model loaded on startup")
	} else {
		logg.Warnf("no model available on startup, POST /api/train to generate one")
	}
	sink.RecordModelLoaded(st.IsLoaded())

	bus := eventbus.New()
	trainer := training.NewTrainer(cfg.Model.Path, logger.New("trainer"))
	orch := training.NewOrchestrator(trainer, st, bus, sink, logger.New("orchestrator"))

	var ann *announce.Announcer
	if cfg.Announce.Enabled {
		var err error
		ann, err = announce.New(cfg.Announce, logger.New("announcer"))
		if err != nil {
			return nil, fmt.Errorf("announcer: %w", err)
		}
	}

	return &Service{cfg: cfg, log: logg, store: st, orch: orch, bus: bus, ann: ann, sink: sink}, nil
}

// Run starts the HTTP API (and metric/announce side channels) and
// blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.ann != nil {
		sub := s.bus.Subscribe()
		go s.ann.Run(ctx, sub)
	}

	mux := http.NewServeMux()
	h := apidispatch.New(s.store, s.orch, s.cfg.Training, s.sink, logger.New("api"))
	h.Routes(mux)

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()

	s.log.Infof("dispatch scoring API listening on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.ann != nil {
		s.ann.Close()
	}
	return nil
}

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
	"github.com/kilianp07/dispatchml/infra/logger"
)

// InfluxSink writes scoring and training events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing Influx never takes
// the service down.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes a scoring event point.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_prediction").
		AddTag("component", "scoring").
		AddField("candidates", ev.Candidates).
		AddField("best_score", ev.BestScore).
		AddField("latency_ms", float64(ev.Latency.Microseconds())/1000).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write prediction: %v", err)
	}
}

// RecordTraining writes a training run point.
func (s *InfluxSink) RecordTraining(ev coremetrics.TrainingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_training").
		AddTag("component", "training").
		AddTag("run_id", ev.RunID).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("mae", ev.MAE).
		AddField("r2", ev.R2).
		AddField("samples", ev.Samples).
		AddField("duration_s", ev.Duration.Seconds()).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write training: %v", err)
	}
}

// RecordModelLoaded writes the model availability state.
func (s *InfluxSink) RecordModelLoaded(loaded bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_model").
		AddTag("component", "store").
		AddField("loaded", loaded).
		SetTime(time.Now())
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write model state: %v", err)
	}
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// Package announce publishes model update notices over MQTT so fleet
// services consuming dispatch scores can refresh after a retrain.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/dispatchml/core/logger"
	"github.com/kilianp07/dispatchml/core/training"
	"github.com/kilianp07/dispatchml/internal/eventbus"
)

// Config defines the connection parameters for the announcer.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchml"
	}
	if c.Topic == "" {
		c.Topic = "dispatchml/model/updated"
	}
}

// Validate checks mandatory fields when the announcer is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("announce broker is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Notice is the retained JSON payload published after a successful
// training run.
type Notice struct {
	RunID     string    `json:"run_id"`
	ModelPath string    `json:"model_path"`
	MAE       float64   `json:"mae"`
	R2        float64   `json:"r2"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Announcer publishes model update notices on a fixed topic.
type Announcer struct {
	cli   pahoClient
	topic string
	qos   byte
	log   logger.Logger
}

// New connects to the MQTT broker and returns an Announcer.
func New(cfg Config, log logger.Logger) (*Announcer, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	cli := newMQTTClient(opts)
	tok := cli.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Announcer{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// Announce publishes the notice retained on the configured topic.
func (a *Announcer) Announce(n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	tok := a.cli.Publish(a.topic, a.qos, true, payload)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Run consumes ModelUpdated events from the bus subscription and
// announces each one until the context is canceled.
func (a *Announcer) Run(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			upd, isUpdate := ev.(training.ModelUpdated)
			if !isUpdate {
				continue
			}
			n := Notice{
				RunID:     upd.RunID,
				ModelPath: upd.ModelPath,
				MAE:       upd.MAE,
				R2:        upd.R2,
				UpdatedAt: upd.Timestamp,
			}
			if err := a.Announce(n); err != nil {
				a.log.Errorf("announce model update %s: %v", upd.RunID, err)
				continue
			}
			a.log.Infof("announced model update %s on %s", upd.RunID, a.topic)
		}
	}
}

// Close disconnects from the broker.
func (a *Announcer) Close() {
	a.cli.Disconnect(250)
}

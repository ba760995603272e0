package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"

	"niederschlag-server/internal/bootstrap"
	"niederschlag-server/internal/config"
)

const (
	qosAtLeastOnce = byte(1)
	publishTimeout = 5 * time.Second
	poll           = 200 * time.Millisecond
)

var (
	errStopped      = errors.New("publisher stopped")
	errNotConnected = errors.New("mqtt client not connected")
)

// LoadedEvent is the payload published after a bootstrap load.
type LoadedEvent struct {
	Event    string    `json:"event"`
	Source   string    `json:"source"`
	Mode     string    `json:"mode"`
	Loaded   int       `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Publisher announces bootstrap results on the configured topic.
type Publisher struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	clock     clockwork.Clock
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := newPublisher(cfg, logger, clockwork.NewRealClock())

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func newPublisher(cfg config.Config, logger *slog.Logger, clock clockwork.Clock) *Publisher {
	return &Publisher{
		cfg:    cfg,
		logger: logger.With("component", "mqtt"),
		clock:  clock,
		stopCh: make(chan struct{}),
	}
}

// Connect blocks until the broker accepts the connection, ctx is done or
// the publisher is disconnected.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	if err := p.wait(ctx, token); err != nil {
		p.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	p.setConnected(true)
	return nil
}

// NotifyLoaded publishes res as a LoadedEvent with QoS 1. Skipped runs are
// not announced.
func (p *Publisher) NotifyLoaded(ctx context.Context, res bootstrap.Result) error {
	if res.Skipped {
		return nil
	}
	if !p.IsConnected() {
		return errNotConnected
	}

	payload, err := p.payload(res)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	token := p.client.Publish(p.cfg.MQTTTopic, qosAtLeastOnce, false, payload)
	if err := p.wait(ctx, token); err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.MQTTTopic, err)
	}
	p.logger.Debug("published bootstrap event", "topic", p.cfg.MQTTTopic, "size", len(payload))
	return nil
}

func (p *Publisher) payload(res bootstrap.Result) ([]byte, error) {
	return json.Marshal(LoadedEvent{
		Event:    "bootstrap.loaded",
		Source:   res.Source,
		Mode:     res.Mode,
		Loaded:   res.Loaded,
		LoadedAt: p.clock.Now().UTC(),
	})
}

// wait polls token until it completes, ctx is done or the publisher stops.
func (p *Publisher) wait(ctx context.Context, token mqtt.Token) error {
	for {
		if token.WaitTimeout(poll) {
			return token.Error()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return errStopped
		default:
		}
	}
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client != nil && p.client.IsConnected()
}

// Disconnect closes the connection. Idempotent.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

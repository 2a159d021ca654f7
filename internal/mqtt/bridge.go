// Package mqtt ingests sensor readings from an MQTT broker and publishes
// outbound alerts back to it.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectWait = 10 * time.Second
	publishWait        = 3 * time.Second
	ingestTimeout      = 5 * time.Second
	disconnectQuiesce  = 250
)

var ErrNotConnected = errors.New("mqtt client not connected")

type Options struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	ReadingsTopic string
	AlertsTopic   string
	QoS           byte
	ConnectWait   time.Duration
}

// Ingester accepts decoded readings.
type Ingester interface {
	Ingest(ctx context.Context, r models.SensorReading) (models.SensorReading, error)
}

// Bridge subscribes to the readings topic and implements the outbound
// notifier by publishing alerts to the alerts topic.
type Bridge struct {
	client paho.Client
	opts   Options
	ingest Ingester
	log    *logger.Logger

	// managed clients subscribe from their connect handler.
	managed bool
}

// NewClientOptions builds paho options. The readings subscription is
// renewed on every (re)connect.
func NewClientOptions(o Options, onConnect paho.OnConnectHandler, log *logger.Logger) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetOnConnectHandler(onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", o.Broker, "error", err)
	})
	opts.SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
		log.Infow("mqtt_reconnecting", "broker", o.Broker)
	})
	return opts
}

// Dial creates a bridge with a real paho client. It does not connect until Run.
func Dial(o Options, ingest Ingester, log *logger.Logger) *Bridge {
	b := &Bridge{opts: o, ingest: ingest, log: log, managed: true}
	b.client = paho.NewClient(NewClientOptions(o, b.onConnect, log))
	return b
}

// New wraps an existing client; used by tests and callers that manage the
// connection themselves.
func New(client paho.Client, o Options, ingest Ingester, log *logger.Logger) *Bridge {
	return &Bridge{client: client, opts: o, ingest: ingest, log: log}
}

// Run connects, subscribes and blocks until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	wait := b.opts.ConnectWait
	if wait <= 0 {
		wait = defaultConnectWait
	}
	tok := b.client.Connect()
	if !tok.WaitTimeout(wait) {
		return fmt.Errorf("connect %s: timed out after %s", b.opts.Broker, wait)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("connect %s: %w", b.opts.Broker, err)
	}
	if !b.managed {
		if err := b.subscribe(); err != nil {
			b.client.Disconnect(disconnectQuiesce)
			return err
		}
	}
	b.log.Infow("mqtt_connected", "broker", b.opts.Broker, "topic", b.opts.ReadingsTopic)

	<-ctx.Done()
	b.client.Disconnect(disconnectQuiesce)
	b.log.Infow("mqtt_disconnected", "broker", b.opts.Broker)
	return nil
}

func (b *Bridge) onConnect(paho.Client) {
	if err := b.subscribe(); err != nil {
		b.log.Errorw("mqtt_subscribe_failed", "topic", b.opts.ReadingsTopic, "error", err)
	}
}

func (b *Bridge) subscribe() error {
	tok := b.client.Subscribe(b.opts.ReadingsTopic, b.opts.QoS, b.handleReading)
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", b.opts.ReadingsTopic, tok.Error())
	}
	return nil
}

// readingMessage is the gateway payload. Absent keys stay unknown.
type readingMessage struct {
	Timestamp      *time.Time `json:"timestamp"`
	CO2PPM         *float64   `json:"co2_ppm"`
	COPPM          *float64   `json:"co_ppm"`
	AirQualityPPM  *float64   `json:"air_quality_ppm"`
	SmokePPM       *float64   `json:"smoke_ppm"`
	FlameDetected  *bool      `json:"flame_detected"`
	MotionDetected *bool      `json:"motion_detected"`
	RelayStatus    *bool      `json:"relay_status"`
}

// DecodeReading parses a gateway payload into a reading.
func DecodeReading(payload []byte) (models.SensorReading, error) {
	var m readingMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return models.SensorReading{}, fmt.Errorf("decode reading: %w", err)
	}
	r := models.SensorReading{
		CO2PPM:         m.CO2PPM,
		COPPM:          m.COPPM,
		AirQualityPPM:  m.AirQualityPPM,
		SmokePPM:       m.SmokePPM,
		FlameDetected:  m.FlameDetected,
		MotionDetected: m.MotionDetected,
		RelayOn:        m.RelayStatus,
	}
	if m.Timestamp != nil {
		r.CreatedAt = m.Timestamp.UTC()
	}
	return r, nil
}

func (b *Bridge) handleReading(_ paho.Client, msg paho.Message) {
	r, err := DecodeReading(msg.Payload())
	if err != nil {
		b.log.Warnw("mqtt_bad_payload", "topic", msg.Topic(), "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if _, err := b.ingest.Ingest(ctx, r); err != nil {
		b.log.Warnw("mqtt_ingest_failed", "topic", msg.Topic(), "error", err)
	}
}

// alertMessage is what subscribers of the alerts topic receive.
type alertMessage struct {
	Recipient string              `json:"recipient"`
	Alert     models.AlertPayload `json:"alert"`
}

// Notify publishes an outbound alert. It satisfies service.Notifier.
func (b *Bridge) Notify(ctx context.Context, recipient string, payload models.AlertPayload) error {
	if !b.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	body, err := json.Marshal(alertMessage{Recipient: recipient, Alert: payload})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	wait := publishWait
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}
	tok := b.client.Publish(b.opts.AlertsTopic, b.opts.QoS, false, body)
	if !tok.WaitTimeout(wait) {
		return fmt.Errorf("publish %s: timed out", b.opts.AlertsTopic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", b.opts.AlertsTopic, err)
	}
	return nil
}

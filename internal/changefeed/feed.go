// Package changefeed carries page change events between running instances
// over MQTT, so a page in one window refreshes when another saves.
package changefeed

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/entitypages/internal/page"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	maxQoS                   = 2
)

// Handler receives change events published by other instances.
type Handler func(page.ChangeEvent)

// Feed is an EventSink that can also deliver remote events.
type Feed interface {
	page.EventSink
	Subscribe(h Handler) error
	Close() error
}

// Options configures Open.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Logger      zerolog.Logger
}

// Open connects to opts.Broker, or returns a Nop feed when it is empty.
func Open(opts Options) (Feed, error) {
	if opts.Broker == "" {
		return Nop{}, nil
	}
	return Connect(opts)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, page.ChangeEvent) error { return nil }
func (Nop) Subscribe(Handler) error                      { return nil }
func (Nop) Close() error                                 { return nil }

// MQTT publishes and receives change events through a broker.
type MQTT struct {
	client pahomqtt.Client
	topics Topics
	qos    byte
	origin string
	log    zerolog.Logger
}

var _ Feed = (*MQTT)(nil)

// Connect dials the broker and waits for the connection.
func Connect(opts Options) (*MQTT, error) {
	if opts.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if opts.ClientID == "" {
		opts.ClientID = "entitypages-" + uuid.NewString()[:8]
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "entitypages"
	}

	po := pahomqtt.NewClientOptions()
	po.AddBroker(opts.Broker)
	po.SetClientID(opts.ClientID)
	po.SetCleanSession(true)
	po.SetAutoReconnect(true)
	po.SetConnectTimeout(defaultConnectTimeout)
	po.SetKeepAlive(defaultKeepAlive)

	m := &MQTT{
		topics: Topics{Prefix: opts.TopicPrefix},
		qos:    opts.QoS,
		origin: opts.ClientID,
		log:    opts.Logger.With().Str("component", "changefeed").Logger(),
	}
	po.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		m.log.Warn().Err(err).Msg("connection lost")
	})

	m.client = pahomqtt.NewClient(po)
	token := m.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	m.log.Info().Str("broker", opts.Broker).Str("client_id", opts.ClientID).Msg("connected")
	return m, nil
}

// Emit publishes ev, stamped with this instance's origin.
func (m *MQTT) Emit(ctx context.Context, ev page.ChangeEvent) error {
	ev.Origin = m.origin
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	if !m.client.IsConnected() {
		return ErrNotConnected
	}
	token := m.client.Publish(m.topics.Changed(ev.Kind), m.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
	case <-time.After(defaultPublishTimeout):
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Subscribe delivers events from other instances to h. Events this
// instance published are skipped. h runs on a paho goroutine.
func (m *MQTT) Subscribe(h Handler) error {
	token := m.client.Subscribe(m.topics.AllChanged(), m.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		m.deliver(msg.Topic(), msg.Payload(), h)
	})
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

func (m *MQTT) deliver(topic string, payload []byte, h Handler) {
	kind, ok := m.topics.KindOf(topic)
	if !ok {
		m.log.Debug().Str("topic", topic).Msg("ignoring topic")
		return
	}
	ev, err := Decode(payload)
	if err != nil {
		m.log.Warn().Err(err).Str("topic", topic).Msg("bad change event")
		return
	}
	if ev.Kind != kind {
		m.log.Warn().Str("topic", topic).Str("kind", ev.Kind).Msg("kind does not match topic")
		return
	}
	if ev.Origin == m.origin {
		return
	}
	h(ev)
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.client == nil {
		return nil
	}
	m.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

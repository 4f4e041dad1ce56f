package mqtt

import (
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/sweeney/ember-trigger/internal/logic"
)

// DefaultBufferSize is the number of messages held while the broker is unreachable.
const DefaultBufferSize = 100

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int
	Logger     *slog.Logger
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are held in a ring buffer and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string
	logger *slog.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.ClientID == "" {
		o.ClientID = "ember-trigger"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	p := &RealPublisher{
		topic:  Topic,
		logger: o.Logger.With("component", "mqtt"),
		buf:    newRingBuffer(o.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		return nil, errors.Wrap(err, "format will payload")
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.flush() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Warn("connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// Connect keeps retrying in the background; events buffer until it succeeds.
		p.logger.Warn("broker not reachable yet, buffering events", "broker", o.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "connect to broker")
	}

	return p, nil
}

// Publish sends a controller event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}

	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: p.topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrap(err, "format system payload")
	}

	// QoS 1 (at-least-once) so shutdown events make it out.
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		dropped := p.buf.push(msg)
		p.mu.Unlock()
		if dropped {
			p.logger.Warn("offline buffer full, dropped oldest message")
		}
		return nil
	}

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.Errorf("publish to %s: timeout", msg.topic)
	}
	return errors.Wrapf(token.Error(), "publish to %s", msg.topic)
}

// flush replays buffered messages after (re)connecting.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.logger.Info("replaying buffered messages", "count", len(msgs))

	for _, m := range msgs {
		// Don't wait on the token here: this runs on the paho callback goroutine.
		p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

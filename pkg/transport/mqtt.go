package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// QoSAtLeastOnce is used for every publish and subscription.
	QoSAtLeastOnce byte = 1

	DefaultConnectTimeout = 10 * time.Second
	// DefaultPublishTimeout bounds the wait for a PUBACK when the caller's context has no deadline.
	DefaultPublishTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// MQTTBus is a Bus backed by an MQTT broker.
type MQTTBus struct {
	client         mqtt.Client
	connectTimeout time.Duration
	publishTimeout time.Duration

	lock          sync.Mutex
	subscriptions map[string]Handler
}

type NewMQTTBusOptions struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// NewMQTTBus connects to the broker. Subscriptions are restored after reconnects.
func NewMQTTBus(opts NewMQTTBusOptions) (*MQTTBus, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	b := &MQTTBus{
		connectTimeout: opts.ConnectTimeout,
		publishTimeout: opts.PublishTimeout,
		subscriptions:  make(map[string]Handler),
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	// handlers publish and write to sockets, so each message gets its own goroutine
	clientOpts.SetOrderMatters(false)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetOnConnectHandler(b.resubscribe)
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("Lost connection to MQTT broker: %v", err)
	})

	b.client = mqtt.NewClient(clientOpts)
	token := b.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %v", opts.Broker, err)
	}
	log.Info("Connected to MQTT broker %s as %s", opts.Broker, opts.ClientID)
	return b, nil
}

func (b *MQTTBus) Publish(ctx context.Context, topic string, payload []byte) error {
	token := b.client.Publish(topic, QoSAtLeastOnce, false, payload)
	timer := time.NewTimer(b.publishTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out publishing to %s", topic)
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %v", topic, err)
	}
	return nil
}

func (b *MQTTBus) Subscribe(topic string, handler Handler) (func(), error) {
	if err := b.subscribe(topic, handler); err != nil {
		return nil, err
	}
	b.lock.Lock()
	b.subscriptions[topic] = handler
	b.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.lock.Lock()
			delete(b.subscriptions, topic)
			b.lock.Unlock()
			token := b.client.Unsubscribe(topic)
			if token.WaitTimeout(b.connectTimeout) && token.Error() != nil {
				log.Error("Failed to unsubscribe from %s: %v", topic, token.Error())
			}
		})
	}, nil
}

func (b *MQTTBus) subscribe(topic string, handler Handler) error {
	token := b.client.Subscribe(topic, QoSAtLeastOnce, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(b.connectTimeout) {
		return fmt.Errorf("timed out subscribing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %v", topic, err)
	}
	return nil
}

// resubscribe restores subscriptions lost with a clean session.
func (b *MQTTBus) resubscribe(_ mqtt.Client) {
	b.lock.Lock()
	subs := make(map[string]Handler, len(b.subscriptions))
	for topic, handler := range b.subscriptions {
		subs[topic] = handler
	}
	b.lock.Unlock()

	for topic, handler := range subs {
		if err := b.subscribe(topic, handler); err != nil {
			log.Error("Failed to restore subscription: %v", err)
		}
	}
}

func (b *MQTTBus) Close() {
	b.client.Disconnect(disconnectQuiesceMs)
}

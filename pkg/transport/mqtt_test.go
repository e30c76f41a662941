package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqttserver "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBroker starts an in-process MQTT broker and returns its tcp:// URL.
func newTestBroker(t *testing.T) string {
	t.Helper()
	server := mqttserver.New(&mqttserver.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))

	tcp := listeners.NewTCP(listeners.Config{ID: "test", Address: "127.0.0.1:0"})
	require.NoError(t, server.AddListener(tcp))
	go func() {
		if err := server.Serve(); err != nil {
			t.Logf("broker stopped: %v", err)
		}
	}()
	t.Cleanup(func() { server.Close() })

	return "tcp://" + tcp.Address()
}

func newTestMQTTBus(t *testing.T, broker string, clientID string) *MQTTBus {
	t.Helper()
	bus, err := NewMQTTBus(NewMQTTBusOptions{
		Broker:   broker,
		ClientID: clientID,
	})
	require.NoError(t, err)
	t.Cleanup(bus.Close)
	return bus
}

func TestMQTTBus_Delivery(t *testing.T) {
	broker := newTestBroker(t)
	publisher := newTestMQTTBus(t, broker, "publisher")
	subscriber := newTestMQTTBus(t, broker, "subscriber")

	events := &collector{}
	unsubscribe, err := subscriber.Subscribe("rooms/+/events", events.handle)
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), "rooms/AB12/events", []byte("one")))
	require.NoError(t, publisher.Publish(context.Background(), "rooms/AB12/intents", []byte("ignored")))

	require.Eventually(t, func() bool { return events.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"rooms/AB12/events:one"}, events.all())

	unsubscribe()
	require.NoError(t, publisher.Publish(context.Background(), "rooms/AB12/events", []byte("two")))
	assert.Never(t, func() bool { return events.count() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
}

// The server consumes intents and publishes events from inside the handler while
// also subscribed to the events it publishes.
func TestMQTTBus_PublishFromHandler(t *testing.T) {
	broker := newTestBroker(t)
	server := newTestMQTTBus(t, broker, "server")

	_, err := server.Subscribe("rooms/+/events", func(string, []byte) {
		time.Sleep(time.Millisecond)
	})
	require.NoError(t, err)

	var handled atomic.Int64
	_, err = server.Subscribe("rooms/+/intents", func(topic string, payload []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := 0; i < 3; i++ {
			if err := server.Publish(ctx, "rooms/AB12/events", payload); err != nil {
				return
			}
		}
		handled.Add(1)
	})
	require.NoError(t, err)

	const publishers = 4
	const perPublisher = 50
	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		client := newTestMQTTBus(t, broker, fmt.Sprintf("client-%d", p))
		wg.Add(1)
		go func(client *MQTTBus) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				assert.NoError(t, client.Publish(context.Background(), "rooms/AB12/intents", []byte("flip")))
			}
		}(client)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return handled.Load() == publishers*perPublisher
	}, 10*time.Second, 20*time.Millisecond)
}

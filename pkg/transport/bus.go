package transport

import (
	"context"
	"errors"
	"strings"
)

// ErrBusClosed is returned by operations on a closed bus.
var ErrBusClosed = errors.New("bus closed")

// Handler receives a message published on a topic matching a subscription.
// Delivery is at-least-once and unordered across topics.
type Handler func(topic string, payload []byte)

// Bus is a topic based publish/subscribe transport.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers a handler for a topic filter that may contain the
	// single level wildcard "+" or a trailing multi level wildcard "#".
	Subscribe(topic string, handler Handler) (unsubscribe func(), err error)
	Close()
}

// TopicMatches reports whether a topic matches a subscription filter.
func TopicMatches(filter string, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")
	for i, level := range filterLevels {
		if level == "#" {
			return i == len(filterLevels)-1
		}
		if i >= len(topicLevels) {
			return false
		}
		if level != "+" && level != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}

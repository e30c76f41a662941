package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned when an item cannot be enqueued without blocking.
var ErrQueueFull = errors.New("queue full")

// Queue represents a basic queue.
type Queue interface {
	Enqueue(item interface{}) error
	Dequeue(ctx context.Context) (interface{}, error)
	Size() int
	ReadAllMessages() []interface{}
	ClearQueue()
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type EventKind string

const (
	EventSubmissionReceived EventKind = "submission.received"
	EventEstimateReady      EventKind = "estimate.ready"
)

// Event is a post-commit notification to an external automation endpoint.
// Delivery is best effort: bounded timeout, no retry, failures only logged.
type Event struct {
	Kind    EventKind
	Payload any
}

// Endpoint binds an event kind to a webhook URL and delivery timeout.
type Endpoint struct {
	URL     string
	Timeout time.Duration
}

// Dispatcher delivers events from a queue on a background worker, so the
// request path that emitted them has already returned by the time delivery
// happens. Notification outcome can therefore never affect a committed
// result.
type Dispatcher struct {
	endpoints map[EventKind]Endpoint
	token     string
	client    *http.Client
	logger    *logrus.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(endpoints map[EventKind]Endpoint, token string, capacity int, logger *logrus.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = 64
	}

	d := &Dispatcher{
		endpoints: endpoints,
		token:     token,
		client:    &http.Client{},
		logger:    logger,
		queue:     make(chan Event, capacity),
		done:      make(chan struct{}),
	}

	go d.run()

	return d
}

// Emit enqueues an event without blocking. When the queue is full, or the
// dispatcher has been closed, the event is dropped and logged; there is no
// delivery guarantee to preserve. A shutdown racing a late handler must never
// panic the process.
func (d *Dispatcher) Emit(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.WithField("kind", event.Kind).Warn("dispatcher closed, dropping event")
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.WithField("kind", event.Kind).Warn("webhook queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued deliveries to finish.
// Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	endpoint, ok := d.endpoints[event.Kind]
	if !ok || endpoint.URL == "" {
		return
	}

	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, err := json.Marshal(event.Payload)
	if err != nil {
		d.logger.WithError(err).WithField("kind", event.Kind).Error("failed to marshal webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		d.logger.WithError(err).WithField("kind", event.Kind).Error("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("x-webhook-token", d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.WithError(err).WithField("kind", event.Kind).Warn("webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.WithFields(logrus.Fields{
			"kind":   event.Kind,
			"status": resp.StatusCode,
		}).Warn("webhook delivery rejected")
		return
	}

	d.logger.WithField("kind", event.Kind).Debug("webhook delivered")
}

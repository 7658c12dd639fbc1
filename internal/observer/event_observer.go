package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RecognitionEvent represents a pipeline or routing event
type RecognitionEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	RequestID    string                 `json:"request_id,omitempty"`
	Filename     string                 `json:"filename,omitempty"`
	HallID       string                 `json:"hall_id,omitempty"`
	Confidence   float64                `json:"confidence,omitempty"`
	Kind         string                 `json:"kind,omitempty"`
	Duration     time.Duration          `json:"duration"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of event
type EventType string

const (
	// RecognitionStarted when an upload enters the pipeline
	RecognitionStarted EventType = "recognition_started"
	// RecognitionCompleted when a hall was recognized
	RecognitionCompleted EventType = "recognition_completed"
	// RecognitionRejected when a gate rejected the upload or the result
	RecognitionRejected EventType = "recognition_rejected"
	// RecognitionFailed on an internal error
	RecognitionFailed EventType = "recognition_failed"
	// RouteComputed when a route was planned
	RouteComputed EventType = "route_computed"
	// RouteRejected when a route request named an unknown location
	RouteRejected EventType = "route_rejected"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event RecognitionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event RecognitionEvent)
}

// LoggingObserver logs events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles events by logging them. Internal failures are logged at error level.
func (o *LoggingObserver) OnEvent(ctx context.Context, event RecognitionEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.HallID != "" {
		fields["hall_id"] = event.HallID
		fields["confidence"] = event.Confidence
	}
	if event.Kind != "" {
		fields["kind"] = event.Kind
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RecognitionStarted:
		entry.Debug("Recognition started")
	case RecognitionCompleted:
		entry.Info("Hall recognized")
	case RecognitionRejected:
		entry.Warn("Recognition rejected")
	case RecognitionFailed:
		entry.Error("Recognition failed")
	case RouteComputed:
		entry.Info("Route computed")
	case RouteRejected:
		entry.Warn("Route rejected")
	default:
		entry.Info("Event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver keeps in-process counters for the health endpoint
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalRecognitions   int64
	recognized          int64
	rejected            int64
	failed              int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event RecognitionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RecognitionStarted:
		o.totalRecognitions++
	case RecognitionCompleted:
		o.recognized++
		o.totalProcessingTime += event.Duration
	case RecognitionRejected:
		o.rejected++
	case RecognitionFailed:
		o.failed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.recognized > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.recognized)
	}

	return map[string]interface{}{
		"total_recognitions": o.totalRecognitions,
		"recognized":         o.recognized,
		"rejected":           o.rejected,
		"failed":             o.failed,
		"avg_processing_ms":  avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer on the caller's goroutine,
// in subscription order. A panicking observer does not stop the others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RecognitionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event RecognitionEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

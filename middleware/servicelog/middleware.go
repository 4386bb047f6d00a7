// Package servicelog logs every request-reply service call on the mono bus
// and keeps per-service call counters.
package servicelog

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Middleware implements call logging as a mono.MiddlewareModule.
type Middleware struct {
	logger *slog.Logger

	mu       sync.RWMutex
	counters map[string]*counter
}

type counter struct {
	calls   uint64
	errors  uint64
	elapsed time.Duration
}

// ServiceStats summarizes the calls handled by one service.
type ServiceStats struct {
	Service   string  `json:"service"`
	Calls     uint64  `json:"calls"`
	Errors    uint64  `json:"errors"`
	AvgMillis float64 `json:"avg_ms"`
}

// Compile-time interface checks
var _ mono.Module = (*Middleware)(nil)
var _ mono.MiddlewareModule = (*Middleware)(nil)
var _ mono.HealthCheckableModule = (*Middleware)(nil)

// New creates the middleware. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		logger:   logger,
		counters: make(map[string]*counter),
	}
}

// Name returns the middleware name.
func (m *Middleware) Name() string {
	return "service-log"
}

// Start is a no-op.
func (m *Middleware) Start(_ context.Context) error {
	m.logger.Info("Service call logging started")
	return nil
}

// Stop logs the final per-service totals.
func (m *Middleware) Stop(_ context.Context) error {
	for _, s := range m.Snapshot() {
		m.logger.Info("Service call totals",
			"service", s.Service,
			"calls", s.Calls,
			"errors", s.Errors,
			"avg_ms", s.AvgMillis)
	}
	return nil
}

// Health reports the counters collected so far.
func (m *Middleware) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"services": m.Snapshot(),
		},
	}
}

// OnModuleLifecycle logs module start and stop.
func (m *Middleware) OnModuleLifecycle(
	_ context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	switch event.Type {
	case types.ModuleStartedEvent:
		m.logger.Info("Module started", "module", event.ModuleName)
	case types.ModuleStoppedEvent:
		m.logger.Info("Module stopped", "module", event.ModuleName)
	}
	return event
}

// OnServiceRegistration wraps request-reply handlers with timing and logging.
func (m *Middleware) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type != types.ServiceTypeRequestReply || reg.RequestHandler == nil {
		return reg
	}

	service := reg.Name
	original := reg.RequestHandler
	m.logger.Debug("Wrapping service with call logging", "service", service)

	reg.RequestHandler = func(ctx context.Context, req *types.Msg) ([]byte, error) {
		start := time.Now()
		resp, err := original(ctx, req)
		elapsed := time.Since(start)

		m.record(service, elapsed, err)
		if err != nil {
			// Request payloads are never logged; they may carry credentials.
			m.logger.Warn("Service call failed",
				"service", service,
				"duration", elapsed,
				"error", err)
		} else {
			m.logger.Debug("Service call",
				"service", service,
				"duration", elapsed)
		}
		return resp, err
	}
	return reg
}

// OnConfigurationChange passes through configuration changes unchanged.
func (m *Middleware) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

// OnOutgoingMessage passes through outgoing messages unchanged.
func (m *Middleware) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration passes through event consumer registrations unchanged.
func (m *Middleware) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	return entry
}

// OnEventStreamConsumerRegistration passes through event stream consumer registrations unchanged.
func (m *Middleware) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}

func (m *Middleware) record(service string, elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[service]
	if !ok {
		c = &counter{}
		m.counters[service] = c
	}
	c.calls++
	c.elapsed += elapsed
	if err != nil {
		c.errors++
	}
}

// Snapshot returns the per-service counters sorted by service name.
func (m *Middleware) Snapshot() []ServiceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ServiceStats, 0, len(m.counters))
	for name, c := range m.counters {
		var avg float64
		if c.calls > 0 {
			avg = float64(c.elapsed.Microseconds()) / float64(c.calls) / 1000
		}
		out = append(out, ServiceStats{
			Service:   name,
			Calls:     c.calls,
			Errors:    c.errors,
			AvgMillis: avg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

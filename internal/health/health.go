package health

import (
	"sort"
	"sync"
	"time"

	"github.com/srimandarbha/conntracker/internal/logging"
)

var log = logging.L("health")

// Status represents the health status of a component.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// Check stores the latest health result for a named component.
type Check struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Monitor tracks health checks for multiple components.
type Monitor struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
	}
}

// Update records the health status for a named component.
func (m *Monitor) Update(name string, status Status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, seen := m.checks[name]
	m.checks[name] = Check{
		Name:      name,
		Status:    status,
		Message:   message,
		UpdatedAt: time.Now(),
	}

	// Log status transitions only, not every repeated failure.
	if status != Healthy && (!seen || previous.Status == Healthy) {
		log.Warn("component degraded", "name", name, "status", string(status), "message", message)
	}
	if status == Healthy && seen && previous.Status != Healthy {
		log.Info("component recovered", "name", name)
	}
}

// Get returns the health check for a named component.
func (m *Monitor) Get(name string) (Check, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	check, ok := m.checks[name]
	return check, ok
}

// All returns every recorded check, sorted by component name.
func (m *Monitor) All() []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := make([]Check, 0, len(m.checks))
	for _, check := range m.checks {
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return checks
}

// Overall reduces all checks to a single status: the worst one recorded.
func (m *Monitor) Overall() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := Healthy
	for _, check := range m.checks {
		switch check.Status {
		case Unhealthy:
			return Unhealthy
		case Degraded:
			overall = Degraded
		}
	}
	return overall
}

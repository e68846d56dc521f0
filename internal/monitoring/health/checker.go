package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusOK indicates the component is healthy
	StatusOK Status = "OK"
	// StatusWarning indicates the component has issues but is still functional
	StatusWarning Status = "WARNING"
	// StatusError indicates the component is not functioning
	StatusError Status = "ERROR"
)

// ComponentProcessSource is the health entry fed by poll results.
const ComponentProcessSource = "process_source"

func (s Status) rank() int {
	switch s {
	case StatusOK:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2
	}
}

// ComponentHealth represents the health status of a system component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// HealthChecker derives component health from poll results. A failed poll
// degrades the process source; failureThreshold consecutive failures mark it
// as down.
type HealthChecker struct {
	components          map[string]*ComponentHealth
	mu                  sync.RWMutex
	failureThreshold    int
	consecutiveFailures int
	log                 zerolog.Logger
	now                 func() time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(failureThreshold int) *HealthChecker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}

	hc := &HealthChecker{
		components:       make(map[string]*ComponentHealth),
		failureThreshold: failureThreshold,
		log:              logger.WithComponent("health_checker"),
		now:              time.Now,
	}
	hc.components[ComponentProcessSource] = &ComponentHealth{
		Name:        ComponentProcessSource,
		Status:      StatusWarning,
		Message:     "Awaiting first poll",
		LastChecked: hc.now(),
	}
	return hc
}

// ObservePoll updates the process source health from one poll result.
func (hc *HealthChecker) ObservePoll(sample *models.Sample, err error) {
	health := &ComponentHealth{
		Name:        ComponentProcessSource,
		LastChecked: hc.now(),
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()

	if err != nil {
		hc.consecutiveFailures++
		health.Message = fmt.Sprintf("Poll failed (%d consecutive): %v", hc.consecutiveFailures, err)
		if hc.consecutiveFailures >= hc.failureThreshold {
			health.Status = StatusError
			hc.log.Error().Err(err).Int("consecutive_failures", hc.consecutiveFailures).
				Msg("Process source is down")
		} else {
			health.Status = StatusWarning
		}
	} else {
		if hc.consecutiveFailures > 0 {
			hc.log.Info().Int("failures", hc.consecutiveFailures).Msg("Process source recovered")
		}
		hc.consecutiveFailures = 0
		health.Status = StatusOK
		health.Message = fmt.Sprintf("%d IOC processes matched, %d skipped", sample.MatchedCount, sample.Skipped)
	}

	hc.components[ComponentProcessSource] = health
}

// Overall returns the worst status across components.
func (hc *HealthChecker) Overall() Status {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	worst := StatusOK
	for _, c := range hc.components {
		if c.Status.rank() > worst.rank() {
			worst = c.Status
		}
	}
	return worst
}

// GetAllHealth returns the health status of all components
func (hc *HealthChecker) GetAllHealth() map[string]*ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	// Create a copy to avoid race conditions
	result := make(map[string]*ComponentHealth, len(hc.components))
	for k, v := range hc.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// GetComponentHealth returns the health status of a specific component
func (hc *HealthChecker) GetComponentHealth(name string) *ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	if component, exists := hc.components[name]; exists {
		componentCopy := *component
		return &componentCopy
	}

	return nil
}

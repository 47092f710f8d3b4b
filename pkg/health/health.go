package health

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a connectivity service check
type Status int

const (
	StatusOK Status = iota
	StatusCritical
)

// String returns the canonical spelling of a status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ReportFunc receives the result of each connection attempt. The message
// is empty on success. isDefault marks the primary monitored database.
type ReportFunc func(status Status, host, database, message string, isDefault bool)

// Check represents the most recent service-check result for one target
type Check struct {
	EventID     string
	Host        string
	Database    string
	Status      Status
	Message     string
	IsDefault   bool
	LastChecked time.Time
}

// Checker records the most recent service-check result per target and
// exposes an overall status. Its Report method satisfies ReportFunc.
type Checker struct {
	mu          sync.RWMutex
	checks      map[string]*Check
	lastHealthy time.Time
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks:      make(map[string]*Check),
		lastHealthy: time.Now(),
	}
}

// Report records a service-check result; it has the ReportFunc signature
func (c *Checker) Report(status Status, host, database, message string, isDefault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[host+"/"+database] = &Check{
		EventID:     uuid.NewString(),
		Host:        host,
		Database:    database,
		Status:      status,
		Message:     message,
		IsDefault:   isDefault,
		LastChecked: time.Now(),
	}

	if c.isHealthy() {
		c.lastHealthy = time.Now()
	}
}

// GetOverallStatus returns CRITICAL if any recorded check is critical
func (c *Checker) GetOverallStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, check := range c.checks {
		if check.Status == StatusCritical {
			return StatusCritical
		}
	}
	return StatusOK
}

// GetAllChecks returns copies of all recorded check results
func (c *Checker) GetAllChecks() []*Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var checks []*Check
	for _, check := range c.checks {
		checkCopy := *check
		checks = append(checks, &checkCopy)
	}

	return checks
}

// GetCheck returns the most recent result for a host/database pair
func (c *Checker) GetCheck(host, database string) (*Check, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	check, ok := c.checks[host+"/"+database]
	if !ok {
		return nil, false
	}
	checkCopy := *check
	return &checkCopy, true
}

// GetLastHealthyTime returns the last time all checks were passing
func (c *Checker) GetLastHealthyTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHealthy
}

func (c *Checker) isHealthy() bool {
	for _, check := range c.checks {
		if check.Status != StatusOK {
			return false
		}
	}
	return true
}

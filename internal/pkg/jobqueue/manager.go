package jobqueue

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/carenest/CareNest/internal/pkg/env"
)

// Manager manages the global job queue
type Manager struct {
	queue   *Queue
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue: NewQueue(workerCount),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	log.Info("[JobQueue Manager] Starting job queue")
	m.queue.Start()
}

// Stop stops the job queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	log.Info("[JobQueue Manager] Stopping job queue...")
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped")
}

// EnqueueGeocodeProvider queues a provider address for background geocoding
func EnqueueGeocodeProvider(providerID uint, address string) (*Job, error) {
	return GetManager().GetQueue().EnqueueJob(JobTypeGeocodeProvider, map[string]interface{}{
		"provider_id": providerID,
		"address":     address,
	})
}

// EnqueueBookingEmail queues a booking notification mail
func EnqueueBookingEmail(bookingID uint, recipient, subject, body string) (*Job, error) {
	return GetManager().GetQueue().EnqueueJob(JobTypeBookingEmail, map[string]interface{}{
		"booking_id": bookingID,
		"recipient":  recipient,
		"subject":    subject,
		"body":       body,
	})
}

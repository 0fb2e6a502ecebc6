package messaging

import (
	"sync"

	"github.com/carenest/CareNest/app/repository"
	"github.com/carenest/CareNest/internal/pkg/cache"
)

var (
	defaultService *Service
	once           sync.Once
)

// GetService returns the shared messaging service. Fan-out runs over the
// Redis feed so every app instance sees every message.
func GetService() *Service {
	once.Do(func() {
		hub := NewHub(NewRedisFeed(cache.GetClient()))
		repo := repository.GetGlobalRepositories().Conversation
		defaultService = NewService(repo, hub)
	})
	return defaultService
}

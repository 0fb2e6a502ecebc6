package storage

import (
	"sync"
)

var (
	defaultClient *Client
	defaultErr    error
	once          sync.Once
)

// GetClient returns the shared photo storage client, initializing it on
// first use from the environment.
func GetClient() (*Client, error) {
	once.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			defaultErr = err
			return
		}
		defaultClient, defaultErr = NewClient(cfg)
	})
	return defaultClient, defaultErr
}

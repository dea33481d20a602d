package remote

import (
	"fmt"
	"time"
)

const (
	ServiceTypeHTTP   = "http"
	ServiceTypeMemory = "memory"
)

// NewServiceFromConfig creates a Service based on the service type.
// "memory" serves the built-in sample catalogue; "http" (default) calls baseURL.
func NewServiceFromConfig(serviceType, baseURL, token string, timeout time.Duration) (Service, error) {
	switch serviceType {
	case ServiceTypeMemory:
		return NewMemoryServiceWithFixtures(), nil
	case ServiceTypeHTTP, "":
		return NewHTTPService(baseURL, token, timeout)
	default:
		return nil, fmt.Errorf("unknown remote type: %s (supported: %s, %s)", serviceType, ServiceTypeHTTP, ServiceTypeMemory)
	}
}

package instance

import "os"

// GetID returns the identifier this process logs under. Explicit configuration
// wins over the container hostname.
func GetID() string {
	if id := os.Getenv("STOREFRONT_INSTANCE_ID"); id != "" {
		return id
	}
	if host := os.Getenv("HOSTNAME"); host != "" {
		return host
	}
	return "local"
}

package env

import "os"

// Get reads an environment variable, falling back when it is unset or empty.
// It exists for the handful of reads that happen before config is loaded.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

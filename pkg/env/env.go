// Package env reads process settings that are needed before config.Load
// runs, such as the log format.
package env

import "os"

const prefix = "HOTEL_"

// Get prefers HOTEL_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	for _, name := range []string{prefix + key, key} {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return fallback
}

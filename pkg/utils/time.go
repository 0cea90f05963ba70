package utils

import "time"

// Now returns current time (swappable for tests).
var Now = time.Now

// IsExpired checks whether timestamp is older than ttl.
func IsExpired(timestamp time.Time, ttl time.Duration) bool {
	return time.Since(timestamp) > ttl
}

// FormatTimestamp formats a timestamp in RFC 3339.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// ParseDurationSafe parses a duration string, falling back to a default.
func ParseDurationSafe(s string, defaultDuration time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultDuration
	}
	return d
}

package domain

import "time"

type UserID string

// User is the validated identity attached to a connection. Credential checks
// happen at the HTTP/auth boundary; the relay core only consumes the result.
type User struct {
	ID        UserID
	Username  string
	CreatedAt time.Time
}

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateBoardID mints a short shareable board id: the first uuid group,
// uppercased (e.g. "9A3F01BC").
func GenerateBoardID() string {
	id := uuid.New().String()
	return strings.ToUpper(strings.SplitN(id, "-", 2)[0])
}

// GeneratePeerID generates a peer id for connections whose identity carries
// no usable name.
func GeneratePeerID() string {
	return "peer-" + uuid.New().String()[:8]
}

// GenerateUserID generates a unique user id.
func GenerateUserID() string {
	return uuid.New().String()
}

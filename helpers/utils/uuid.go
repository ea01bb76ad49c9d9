package utils

import (
	"crypto/rand"
	"fmt"
)

// GenerateUUID returns a random UUID-shaped identifier for request
// correlation in logs.
func GenerateUUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

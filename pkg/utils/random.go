package utils

import (
	"github.com/google/uuid"
)

// GenerateAPIKey generates a UUID string to be used as an API keys
func GenerateAPIKey() string {
	return uuid.NewString()
}

package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// credentialEnvVar names the process-wide capability token for the gateway.
const credentialEnvVar = "GEMINI_API_KEY"

// credentialPlaceholder is the literal value some deployment templates leave
// behind; it is treated the same as an unset key.
const credentialPlaceholder = "undefined"

// Credential is the gateway capability token, read once at process start.
type Credential string

// Present reports whether the token is usable for gateway calls.
func (c Credential) Present() bool {
	trimmed := strings.TrimSpace(string(c))
	return trimmed != "" && trimmed != credentialPlaceholder
}

// Key returns the raw token value.
func (c Credential) Key() string {
	return strings.TrimSpace(string(c))
}

// LoadCredential reads the capability token from the environment, consulting
// a .env file first when one exists in the working directory.
func LoadCredential() Credential {
	// Missing .env is the normal case; real environments set the variable
	// directly.
	_ = godotenv.Load()
	return Credential(os.Getenv(credentialEnvVar))
}

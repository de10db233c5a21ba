package config

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"inkwise/internal/store"
)

// CredentialKey is the session key holding the generation API key.
const CredentialKey = "API_KEY"

// CredentialLoader resolves the generation API key: the session store
// first, then the env file, then the process environment. A key found
// outside the session is cached there for later calls.
type CredentialLoader struct {
	Session store.KV
	EnvFile string
}

func NewCredentialLoader(session store.KV, envFile string) *CredentialLoader {
	return &CredentialLoader{Session: session, EnvFile: envFile}
}

// Credential returns the API key, or "" when none is configured.
func (l *CredentialLoader) Credential(ctx context.Context) (string, error) {
	if l.Session != nil {
		val, err := l.Session.Get(ctx, CredentialKey)
		if err == nil && len(val) > 0 {
			return string(val), nil
		}
		if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			return "", err
		}
	}

	key := l.fromEnvFile()
	if key == "" {
		key = os.Getenv(CredentialKey)
	}
	if key == "" {
		return "", nil
	}

	if l.Session != nil {
		if err := l.Session.Set(ctx, CredentialKey, []byte(key)); err != nil {
			log.Printf("failed to cache API key: %v", err)
		}
	}
	return key, nil
}

func (l *CredentialLoader) fromEnvFile() string {
	if l.EnvFile == "" {
		return ""
	}
	vals, err := godotenv.Read(l.EnvFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Error loading %s: %v", l.EnvFile, err)
		}
		return ""
	}
	return vals[CredentialKey]
}

package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements SessionStore using environment variables.
// This is primarily for scripted runs and CI jobs
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrStoreUnavailable
}

// Retrieve gets a session from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Session, error) {
	token := os.Getenv("PHOTONOTES_OAUTH_TOKEN")
	tokenSecret := os.Getenv("PHOTONOTES_OAUTH_TOKEN_SECRET")

	if token == "" || tokenSecret == "" {
		return nil, ErrSessionNotFound
	}

	// Environment variables don't have to carry the username
	if username == "" {
		if envUser := os.Getenv("PHOTONOTES_USERNAME"); envUser != "" {
			username = envUser
		} else {
			username = "default"
		}
	}

	return &Session{
		Username:     username,
		UserID:       os.Getenv("PHOTONOTES_USER_ID"),
		Token:        token,
		TokenSecret:  tokenSecret,
		Permissions:  os.Getenv("PHOTONOTES_PERMISSIONS"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single session if environment variables are set
func (e *EnvironmentStore) List() ([]*Session, error) {
	session, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	token := os.Getenv("PHOTONOTES_OAUTH_TOKEN")
	tokenSecret := os.Getenv("PHOTONOTES_OAUTH_TOKEN_SECRET")
	return token != "" && tokenSecret != ""
}

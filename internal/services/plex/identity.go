package plex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const identityFileName = "identity.json"

type identityState struct {
	ClientIdentifier string `json:"client_identifier"`
}

// IdentityStore keeps the Plex client identifier on disk.
type IdentityStore struct {
	path string
}

// NewIdentityStore builds a store for identity.json inside stateDir. An
// empty stateDir yields a store that never persists.
func NewIdentityStore(stateDir string) *IdentityStore {
	if strings.TrimSpace(stateDir) == "" {
		return &IdentityStore{}
	}
	return &IdentityStore{path: filepath.Join(stateDir, identityFileName)}
}

// ClientIdentifier returns the stored identifier, generating and saving a
// new one on first use.
func (s *IdentityStore) ClientIdentifier() (string, error) {
	state, err := s.load()
	if err != nil {
		return "", err
	}
	if state.ClientIdentifier != "" {
		return state.ClientIdentifier, nil
	}
	state.ClientIdentifier = strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.save(state); err != nil {
		return "", err
	}
	return state.ClientIdentifier, nil
}

// load reads identity state from disk. A missing file resolves to an empty
// state.
func (s *IdentityStore) load() (identityState, error) {
	if s.path == "" {
		return identityState{}, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return identityState{}, nil
		}
		return identityState{}, fmt.Errorf("read plex identity: %w", err)
	}

	var state identityState
	if err := json.Unmarshal(data, &state); err != nil {
		return identityState{}, fmt.Errorf("decode plex identity: %w", err)
	}
	state.ClientIdentifier = strings.TrimSpace(state.ClientIdentifier)
	return state, nil
}

func (s *IdentityStore) save(state identityState) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure identity directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plex identity: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write plex identity: %w", err)
	}
	return nil
}

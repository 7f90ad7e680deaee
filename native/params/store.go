package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"passmint/storage"
)

// Backend captures the metadata capabilities required by the parameter
// helpers. storage.Database satisfies it.
type Backend interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
}

// Store provides typed accessors for operator controlled parameters kept
// beside the committed head.
type Store struct {
	backend Backend
}

// NewStore constructs a parameter store wrapper using the supplied backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) withBackend() (Backend, error) {
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("params: backend not configured")
	}
	return s.backend, nil
}

// SetPause records the toggle for module, keeping the toggles of every other
// module.
func (s *Store) SetPause(module string, paused bool) error {
	name := strings.ToLower(strings.TrimSpace(module))
	if name == "" {
		return fmt.Errorf("params: module name required")
	}
	pauses, err := s.Pauses()
	if err != nil {
		return err
	}
	pauses[name] = paused
	return s.SetPauses(pauses)
}

// SetPauses persists the supplied toggles as JSON.
func (s *Store) SetPauses(pauses map[string]bool) error {
	backend, err := s.withBackend()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return backend.Put([]byte(ParamsKeyPauses), encoded)
}

// Pauses loads the persisted toggles. When unset an empty map is returned.
func (s *Store) Pauses() (map[string]bool, error) {
	backend, err := s.withBackend()
	if err != nil {
		return nil, err
	}
	raw, err := backend.Get([]byte(ParamsKeyPauses))
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	pauses := map[string]bool{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return pauses, nil
	}
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return nil, fmt.Errorf("params: decode pauses: %w", err)
	}
	return pauses, nil
}

// PausedModules lists the modules whose persisted toggle is on, sorted.
func (s *Store) PausedModules() ([]string, error) {
	pauses, err := s.Pauses()
	if err != nil {
		return nil, err
	}
	modules := make([]string, 0, len(pauses))
	for module, paused := range pauses {
		if paused {
			modules = append(modules, module)
		}
	}
	sort.Strings(modules)
	return modules, nil
}

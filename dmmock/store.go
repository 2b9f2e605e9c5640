package dmmock

import (
	"sync"

	"github.com/kardianos/dmtree/dmhost"
	"github.com/kardianos/dmtree/dmstore"
)

// State is an in-memory dmhost.State.
type State struct {
	mu   sync.Mutex
	data map[string][]byte

	// GetErr, when set, is returned by every Get.
	GetErr error
	// PutErr, when set, is returned by every Put and Delete.
	PutErr error
}

var _ dmhost.State = (*State)(nil)

func NewState() *State {
	return &State{data: make(map[string][]byte)}
}

func (s *State) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *State) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *State) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	delete(s.data, key)
	return nil
}

// Secrets is an in-memory secret store keyed by service and entry.
type Secrets struct {
	mu   sync.Mutex
	data map[[2]string]string

	// DeleteErr, when set, is returned by every Delete.
	DeleteErr error
}

func NewSecrets() *Secrets {
	return &Secrets{data: make(map[[2]string]string)}
}

func (s *Secrets) Get(service, entry string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[[2]string{service, entry}]
	if !ok {
		return "", dmstore.ErrSecretNotFound
	}
	return v, nil
}

func (s *Secrets) Set(service, entry, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[[2]string{service, entry}] = secret
	return nil
}

func (s *Secrets) Delete(service, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.data, [2]string{service, entry})
	return nil
}

// Len returns the number of stored secrets.
func (s *Secrets) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

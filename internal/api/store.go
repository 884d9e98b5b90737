package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/samcharles93/pespath/internal/pes"
)

type pathRecord struct {
	Response PathResponse
	Path     pes.Path
}

// PathStore keeps interpolated paths in memory, keyed by id.
type PathStore struct {
	mu    sync.Mutex
	paths map[string]*pathRecord
}

func NewPathStore() *PathStore {
	return &PathStore{
		paths: make(map[string]*pathRecord),
	}
}

func (s *PathStore) Save(resp PathResponse, path pes.Path) {
	s.mu.Lock()
	s.paths[resp.ID] = &pathRecord{Response: resp, Path: path}
	s.mu.Unlock()
}

func (s *PathStore) Get(id string) (*pathRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.paths[id]
	return rec, ok
}

func (s *PathStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[id]; !ok {
		return false
	}
	delete(s.paths, id)
	return true
}

func (s *PathStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func newPathID() string {
	return "path_" + uuid.NewString()
}

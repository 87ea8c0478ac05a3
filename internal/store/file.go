package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// FileStore keeps every configuration in one JSON object keyed by the safe
// company key
type FileStore struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger types.Logger
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		now:    time.Now,
		logger: logging.GetGlobalLogger(),
	}
}

func (s *FileStore) Load(_ context.Context, company string) (*models.CompanyConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	cfg, ok := all[utils.SafeCompanyKey(company)]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

func (s *FileStore) Save(_ context.Context, company string, selectors models.SelectorMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		// unreadable content is replaced on save
		s.logger.Warn("Discarding unreadable configurations file", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		all = map[string]models.CompanyConfiguration{}
	}
	all[utils.SafeCompanyKey(company)] = newConfiguration(company, selectors, s.now())

	if err := s.write(all); err != nil {
		return utils.NewStorageError("failed to write configurations file").Wrap(err)
	}
	s.logger.Info("Configuration saved", map[string]interface{}{"company": company, "path": s.path})
	return nil
}

// List returns configurations ordered by key
func (s *FileStore) List(_ context.Context) ([]models.CompanyConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.CompanyConfiguration, 0, len(keys))
	for _, k := range keys {
		out = append(out, all[k])
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]models.CompanyConfiguration, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.CompanyConfiguration{}, nil
	}
	if err != nil {
		return nil, utils.NewStorageError("failed to read configurations file").Wrap(err)
	}

	all := map[string]models.CompanyConfiguration{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, utils.NewStorageError(fmt.Sprintf("invalid configurations file %s", s.path)).Wrap(err)
	}
	return all, nil
}

// write replaces the file atomically
func (s *FileStore) write(all map[string]models.CompanyConfiguration) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".configurations-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

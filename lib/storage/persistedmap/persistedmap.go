package persistedmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// PersistedMap is a small YAML backed key value store, every write rewrites the whole file.
type PersistedMap[T any] struct {
	filePath string

	mu   sync.RWMutex
	data map[string]T
}

func NewPersistedMap[T any](filePath string) (*PersistedMap[T], error) {
	data, err := loadFromFile[T](filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted map from %q: %w", filePath, err)
	}

	if data == nil {
		data = make(map[string]T)
	}
	return &PersistedMap[T]{filePath: filePath, data: data}, nil
}

// Set stores the value and writes the map to a temporary file that then replaces the previous one.
func (p *PersistedMap[T]) Set(key string, value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data[key] = value
	yamlBytes, err := yaml.Marshal(p.data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(p.filePath), filepath.Base(p.filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err = tmpFile.Write(yamlBytes); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err = os.Rename(tmpFile.Name(), p.filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (p *PersistedMap[T]) Get(key string) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, isOk := p.data[key]
	return value, isOk
}

func loadFromFile[T any](filePath string) (map[string]T, error) {
	readBytes, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var data map[string]T
	if err = yaml.Unmarshal(readBytes, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return data, nil
}

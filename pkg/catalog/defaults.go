package catalog

import (
	"embed"
	"sync"
)

//go:embed defaults
var defaultFS embed.FS

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog. It is parsed on first use and
// shared afterwards.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		repo := NewMemoryRepository()
		if defaultErr = repo.LoadDefaults(); defaultErr != nil {
			return
		}
		defaultCatalog, defaultErr = repo.Catalog()
	})
	return defaultCatalog, defaultErr
}

// LoadDefaults adds the built-in definitions to the repository.
func (r *MemoryRepository) LoadDefaults() error {
	return r.LoadFS(defaultFS, "defaults")
}

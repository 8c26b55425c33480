package catalog

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/boardfile"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Repository knows how to look up definitions by id.
type Repository interface {
	Board(id string) (*hw.Board, bool)
	Component(typ string) (*hw.Component, bool)
}

// MemoryRepository collects definitions before they are frozen into a
// Catalog. Later additions replace earlier ones with the same id, so a user
// directory can override the embedded defaults.
type MemoryRepository struct {
	mu         sync.RWMutex
	boards     map[string]*hw.Board
	components map[string]*hw.Component
	order      []string // "board:" and "component:" keys in first-seen order
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		boards:     make(map[string]*hw.Board),
		components: make(map[string]*hw.Component),
	}
}

// AddBoard registers or replaces a board.
func (r *MemoryRepository) AddBoard(b *hw.Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boards[b.ID]; !ok {
		r.order = append(r.order, "board:"+b.ID)
	}
	r.boards[b.ID] = b
}

// AddComponent registers or replaces a component.
func (r *MemoryRepository) AddComponent(c *hw.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[c.Type]; !ok {
		r.order = append(r.order, "component:"+c.Type)
	}
	r.components[c.Type] = c
}

// Board implements the Repository interface.
func (r *MemoryRepository) Board(id string) (*hw.Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[id]
	return b, ok
}

// Component implements the Repository interface.
func (r *MemoryRepository) Component(typ string) (*hw.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[typ]
	return c, ok
}

// Catalog freezes the current contents in first-seen order.
func (r *MemoryRepository) Catalog() (*Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var boards []*hw.Board
	var comps []*hw.Component
	for _, key := range r.order {
		if id, ok := strings.CutPrefix(key, "board:"); ok {
			boards = append(boards, r.boards[id])
		} else if typ, ok := strings.CutPrefix(key, "component:"); ok {
			comps = append(comps, r.components[typ])
		}
	}
	return New(boards, comps)
}

// LoadFiles parses the provided file paths and adds every definition they
// contain.
func (r *MemoryRepository) LoadFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	parser, err := boardfile.NewParser()
	if err != nil {
		return err
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", p, err)
		}
		if err := r.load(parser, p, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads all .board, .yaml and .yml files from the
// provided directory.
func (r *MemoryRepository) LoadDir(root string) error {
	return r.LoadFS(os.DirFS(root), ".")
}

// LoadFS recursively loads definitions below root in fsys. Files are read in
// lexical order so overrides are reproducible.
func (r *MemoryRepository) LoadFS(fsys fs.FS, root string) error {
	parser, err := boardfile.NewParser()
	if err != nil {
		return err
	}
	var paths []string
	err = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isDefinitionFile(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: walk %s: %w", root, err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", p, err)
		}
		if err := r.load(parser, p, data); err != nil {
			return err
		}
	}
	return nil
}

// load adds the definitions in data; the extension of name picks the format.
func (r *MemoryRepository) load(parser *boardfile.Parser, name string, data []byte) error {
	switch path.Ext(strings.ToLower(name)) {
	case ".board":
		boards, err := parser.Boards(name, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("catalog: load %s: %w", name, err)
		}
		for _, b := range boards {
			r.AddBoard(b)
		}
	case ".yaml", ".yml":
		cf, err := ParseComponents(data)
		if err != nil {
			return fmt.Errorf("catalog: load %s: %w", name, err)
		}
		for i := range cf.Components {
			r.AddComponent(&cf.Components[i])
		}
	default:
		return fmt.Errorf("catalog: %s: not a .board or .yaml file", name)
	}
	return nil
}

func isDefinitionFile(p string) bool {
	switch path.Ext(strings.ToLower(p)) {
	case ".board", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultTableName is the base for suggested names of new entities.
const DefaultTableName = "new_table"

// NewEntityIndex marks a draft that has not been saved yet.
const NewEntityIndex = -1

// Registry owns the ordered entity list, the export selection and the
// editing state. Indices are session handles: deleting an entity shifts
// every later index down by one.
type Registry struct {
	mu        sync.RWMutex
	entities  []Entity
	selected  map[string]bool
	editing   int
	strict    bool
	listeners []func()
	log       zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrictValidation makes Commit reject entities that fail Validate and
// names already used by another entity.
func WithStrictValidation(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// WithLogger sets the logger used for mutation events.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		selected: make(map[string]bool),
		editing:  NewEntityIndex,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to run after every change to the entity list or the
// selection. Listeners run outside the registry lock, so they may read it.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify() {
	r.mu.RLock()
	listeners := append([]func(){}, r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Len returns the number of entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Entity returns a copy of the entity at index.
func (r *Registry) Entity(index int) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := checkIndex("get entity", index, len(r.entities)); err != nil {
		return Entity{}, err
	}
	return r.entities[index].Clone(), nil
}

// Entities returns a copy of all entities in insertion order.
func (r *Registry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, len(r.entities))
	for i, e := range r.entities {
		out[i] = e.Clone()
	}
	return out
}

// SelectedEntities returns copies of the entities marked for export, in
// insertion order.
func (r *Registry) SelectedEntities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entity
	for _, e := range r.entities {
		if r.selected[e.Name] {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Summaries returns the display form of every entity.
func (r *Registry) Summaries() []EntitySummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntitySummary, 0, len(r.entities))
	for i, e := range r.entities {
		out = append(out, e.summary(i, r.selected[e.Name]))
	}
	return out
}

// CreateEntity appends an empty entity and returns its index. The name is
// not checked for uniqueness; see SuggestUniqueName.
func (r *Registry) CreateEntity(name string) int {
	r.mu.Lock()
	r.entities = append(r.entities, Entity{Name: name})
	index := len(r.entities) - 1
	r.mu.Unlock()

	r.log.Debug().Str("entity", name).Int("index", index).Msg("entity created")
	r.notify()
	return index
}

// SuggestUniqueName returns base when no entity uses it, otherwise the first
// of base_2, base_3, ... that no entity uses. Comparison ignores case. An
// empty base falls back to DefaultTableName.
func (r *Registry) SuggestUniqueName(base string) string {
	if base == "" {
		base = DefaultTableName
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	taken := make(map[string]bool, len(r.entities))
	for _, e := range r.entities {
		taken[strings.ToLower(e.Name)] = true
	}

	candidate := base
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
	return candidate
}

// UpdateEntity replaces the name and columns of the entity at index in one step.
func (r *Registry) UpdateEntity(index int, name string, columns []Column) error {
	r.mu.Lock()
	if err := checkIndex("update entity", index, len(r.entities)); err != nil {
		r.mu.Unlock()
		return err
	}
	r.replaceLocked(index, Entity{Name: name, Columns: cloneColumns(columns)})
	r.mu.Unlock()

	r.log.Debug().Str("entity", name).Int("index", index).Msg("entity updated")
	r.notify()
	return nil
}

// replaceLocked swaps the entity at index. A rename drops the old name from
// the selection unless another entity still carries it.
func (r *Registry) replaceLocked(index int, e Entity) {
	old := r.entities[index].Name
	r.entities[index] = e
	if old != e.Name {
		r.pruneSelectionLocked(old)
	}
}

// DeleteEntity removes the entity at index, shifting later entities down.
func (r *Registry) DeleteEntity(index int) error {
	r.mu.Lock()
	if err := checkIndex("delete entity", index, len(r.entities)); err != nil {
		r.mu.Unlock()
		return err
	}
	name := r.entities[index].Name
	r.entities = append(r.entities[:index], r.entities[index+1:]...)
	r.pruneSelectionLocked(name)

	switch {
	case r.editing == index:
		r.editing = NewEntityIndex
	case r.editing > index:
		r.editing--
	}
	r.mu.Unlock()

	r.log.Debug().Str("entity", name).Int("index", index).Msg("entity deleted")
	r.notify()
	return nil
}

func (r *Registry) pruneSelectionLocked(name string) {
	if !r.selected[name] {
		return
	}
	for _, e := range r.entities {
		if e.Name == name {
			return
		}
	}
	delete(r.selected, name)
}

// SetSelected marks or unmarks every entity called name for export. Unknown
// names are ignored.
func (r *Registry) SetSelected(name string, selected bool) {
	r.mu.Lock()
	known := false
	for _, e := range r.entities {
		if e.Name == name {
			known = true
			break
		}
	}
	changed := known && r.selected[name] != selected
	if changed {
		if selected {
			r.selected[name] = true
		} else {
			delete(r.selected, name)
		}
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// SelectAll sets the selection state of every entity.
func (r *Registry) SelectAll(selected bool) {
	r.mu.Lock()
	r.selected = make(map[string]bool, len(r.entities))
	if selected {
		for _, e := range r.entities {
			r.selected[e.Name] = true
		}
	}
	r.mu.Unlock()

	r.notify()
}

// IsSelected reports whether name is marked for export.
func (r *Registry) IsSelected(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected[name]
}

// Replace swaps the whole entity list, clearing selection and editing state.
func (r *Registry) Replace(entities []Entity) {
	r.mu.Lock()
	r.entities = make([]Entity, len(entities))
	for i, e := range entities {
		r.entities[i] = e.Clone()
	}
	r.selected = make(map[string]bool)
	r.editing = NewEntityIndex
	r.mu.Unlock()

	r.log.Debug().Int("entities", len(entities)).Msg("registry replaced")
	r.notify()
}

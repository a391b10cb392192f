package schema

import (
	"fmt"
	"strings"
)

// Draft is an entity under edit. It is a private copy: nothing reaches the
// registry until Commit, and discarding a draft leaves the registry as is.
type Draft struct {
	// Index is the entity being edited, or NewEntityIndex for a new one.
	Index int `json:"index"`
	Entity
}

// IsNew reports whether committing the draft appends a new entity.
func (d Draft) IsNew() bool {
	return d.Index < 0
}

// NewColumn appends the suggested next column and returns its index.
func (d *Draft) NewColumn() int {
	d.AddColumn(SuggestColumn(d.Name, len(d.Columns)))
	return len(d.Columns) - 1
}

// Editing returns the index of the entity being edited, or NewEntityIndex.
func (r *Registry) Editing() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.editing
}

// BeginNew starts editing a new entity named after base, made unique.
func (r *Registry) BeginNew(base string) Draft {
	name := r.SuggestUniqueName(base)

	r.mu.Lock()
	r.editing = NewEntityIndex
	r.mu.Unlock()

	return Draft{Index: NewEntityIndex, Entity: Entity{Name: name}}
}

// BeginEdit starts editing the entity at index.
func (r *Registry) BeginEdit(index int) (Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := checkIndex("edit entity", index, len(r.entities)); err != nil {
		return Draft{}, err
	}
	r.editing = index
	return Draft{Index: index, Entity: r.entities[index].Clone()}, nil
}

// CancelEdit discards the editing state.
func (r *Registry) CancelEdit() {
	r.mu.Lock()
	r.editing = NewEntityIndex
	r.mu.Unlock()
}

// Commit stores the draft: a new draft is appended, an existing one replaces
// the entity at its index with name and columns together. It returns the
// entity's index.
func (r *Registry) Commit(d Draft) (int, error) {
	if r.strict {
		if err := ValidateEntity(d.Entity); err != nil {
			return 0, err
		}
	}

	e := d.Entity.Clone()

	r.mu.Lock()
	if !d.IsNew() {
		if err := checkIndex("commit entity", d.Index, len(r.entities)); err != nil {
			r.mu.Unlock()
			return 0, err
		}
	}
	if r.strict {
		if err := r.checkNameFreeLocked(e.Name, d.Index); err != nil {
			r.mu.Unlock()
			return 0, err
		}
	}

	index := d.Index
	if d.IsNew() {
		r.entities = append(r.entities, e)
		index = len(r.entities) - 1
	} else {
		r.replaceLocked(index, e)
	}
	r.editing = NewEntityIndex
	r.mu.Unlock()

	r.log.Debug().Str("entity", e.Name).Int("index", index).Int("columns", len(e.Columns)).Msg("entity committed")
	r.notify()
	return index, nil
}

func (r *Registry) checkNameFreeLocked(name string, self int) error {
	for i, e := range r.entities {
		if i != self && strings.EqualFold(e.Name, name) {
			return fmt.Errorf("%w: table name %q is already used by entity %d", ErrInvalidInput, name, i)
		}
	}
	return nil
}

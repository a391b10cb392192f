// Package export turns the entities of a schema registry into one SQL script.
package export

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

// Mode selects which entities end up in the script.
type Mode int

const (
	// ModeSelected exports only entities marked for export.
	ModeSelected Mode = iota
	// ModeAll exports every entity.
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "selected"
}

// ParseMode accepts "selected" or "all"; empty means selected.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "selected":
		return ModeSelected, nil
	case "all":
		return ModeAll, nil
	}
	return 0, fmt.Errorf("unknown export mode %q: want selected or all", s)
}

// Source is the part of the registry the exporter reads.
type Source interface {
	Entities() []schema.Entity
	SelectedEntities() []schema.Entity
}

// Exporter renders entity definitions into a script.
type Exporter struct {
	opts schema.RenderOptions
	mode Mode

	mu     sync.RWMutex
	latest string
}

// New creates an exporter.
func New(opts schema.RenderOptions, mode Mode) *Exporter {
	return &Exporter{opts: opts, mode: mode}
}

// Options returns the render options in use.
func (x *Exporter) Options() schema.RenderOptions {
	return x.opts
}

// Mode returns the default export mode.
func (x *Exporter) Mode() Mode {
	return x.mode
}

// Export renders the script in the exporter's default mode.
func (x *Exporter) Export(src Source) string {
	return x.ExportMode(src, x.mode)
}

// ExportMode renders the entities chosen by mode in registry order. Each
// entity definition ends with its own blank line, so definitions are joined
// without separators. No entities yields an empty script.
func (x *Exporter) ExportMode(src Source, mode Mode) string {
	entities := src.SelectedEntities()
	if mode == ModeAll {
		entities = src.Entities()
	}

	var b strings.Builder
	for _, e := range entities {
		b.WriteString(e.Definition(x.opts))
	}
	return b.String()
}

// Watch keeps Latest up to date with every change of reg.
func (x *Exporter) Watch(reg *schema.Registry) {
	x.refresh(reg)
	reg.OnChange(func() {
		x.refresh(reg)
	})
}

func (x *Exporter) refresh(src Source) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.latest = x.Export(src)
}

// Latest returns the script produced by the most recent registry change.
func (x *Exporter) Latest() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.latest
}

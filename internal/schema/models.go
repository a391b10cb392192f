package schema

// Column represents a single column of an entity.
type Column struct {
	Name          string   `json:"name" yaml:"name"`
	Type          DataType `json:"type" yaml:"type"`
	Nullable      bool     `json:"nullable" yaml:"nullable"`
	Default       *string  `json:"default,omitempty" yaml:"default,omitempty"`
	PrimaryKey    bool     `json:"primaryKey" yaml:"primaryKey"`
	AutoIncrement bool     `json:"autoIncrement" yaml:"autoIncrement"`
	EnumValues    []string `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
	Length        string   `json:"length,omitempty" yaml:"length,omitempty"`
}

// Entity represents a table definition: a name and its ordered columns.
type Entity struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// ColumnSummary is the display form of a column.
type ColumnSummary struct {
	Name   string   `json:"name"`
	Type   DataType `json:"type"`
	Length string   `json:"length,omitempty"`
}

// EntitySummary is the display form of an entity in the registry.
type EntitySummary struct {
	Index    int             `json:"index"`
	Name     string          `json:"name"`
	Selected bool            `json:"selected"`
	Columns  []ColumnSummary `json:"columns"`
}

// clone returns a deep copy of the column.
func (c Column) clone() Column {
	out := c
	if c.Default != nil {
		d := *c.Default
		out.Default = &d
	}
	if c.EnumValues != nil {
		out.EnumValues = append([]string(nil), c.EnumValues...)
	}
	return out
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	return Entity{Name: e.Name, Columns: cloneColumns(e.Columns)}
}

func cloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.clone()
	}
	return out
}

func (e Entity) summary(index int, selected bool) EntitySummary {
	cols := make([]ColumnSummary, 0, len(e.Columns))
	for _, c := range e.Columns {
		cols = append(cols, ColumnSummary{Name: c.Name, Type: c.Type, Length: c.Length})
	}
	return EntitySummary{Index: index, Name: e.Name, Selected: selected, Columns: cols}
}

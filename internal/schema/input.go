package schema

import "strings"

// ColumnInput is one column row as submitted by the editor form. Optional
// fields may arrive empty or be left out.
type ColumnInput struct {
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type" yaml:"type"`
	Nullable      bool    `json:"nullable" yaml:"nullable"`
	Default       *string `json:"default" yaml:"default"`
	PrimaryKey    bool    `json:"primaryKey" yaml:"primaryKey"`
	AutoIncrement bool    `json:"autoIncrement" yaml:"autoIncrement"`
	// EnumValues is the comma separated value list of ENUM and SET columns.
	EnumValues string `json:"enumValues" yaml:"enumValues"`
	Length     string `json:"length" yaml:"length"`
}

// EntityInput is a draft entity as submitted by the editor form.
type EntityInput struct {
	Name    string        `json:"name" yaml:"name"`
	Columns []ColumnInput `json:"columns" yaml:"columns"`
}

// Column converts the row into a Column, turning empty optional fields into
// absent ones. Values are otherwise stored verbatim.
func (in ColumnInput) Column() Column {
	col := Column{
		Name:          in.Name,
		Type:          DataType(in.Type),
		Nullable:      in.Nullable,
		PrimaryKey:    in.PrimaryKey,
		AutoIncrement: in.AutoIncrement,
		Length:        in.Length,
	}
	if in.Default != nil && *in.Default != "" {
		d := *in.Default
		col.Default = &d
	}
	if in.EnumValues != "" {
		col.EnumValues = strings.Split(in.EnumValues, ",")
	}
	return col
}

// Entity converts the draft into an Entity.
func (in EntityInput) Entity() Entity {
	e := Entity{Name: in.Name, Columns: make([]Column, 0, len(in.Columns))}
	for _, c := range in.Columns {
		e.AddColumn(c.Column())
	}
	return e
}

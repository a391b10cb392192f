package schema

import "fmt"

// NewEntity returns an entity with no columns.
func NewEntity(name string) *Entity {
	return &Entity{Name: name}
}

// AddColumn appends col to the end of the column list.
func (e *Entity) AddColumn(col Column) {
	e.Columns = append(e.Columns, col)
}

// RemoveColumn deletes the column at index, shifting later columns left.
func (e *Entity) RemoveColumn(index int) error {
	if err := checkIndex("remove column", index, len(e.Columns)); err != nil {
		return err
	}
	e.Columns = append(e.Columns[:index], e.Columns[index+1:]...)
	return nil
}

// MoveColumn moves the column at from to position to, keeping the relative
// order of the others.
func (e *Entity) MoveColumn(from, to int) error {
	if err := checkIndex("move column", from, len(e.Columns)); err != nil {
		return err
	}
	if err := checkIndex("move column", to, len(e.Columns)); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	col := e.Columns[from]
	if from < to {
		copy(e.Columns[from:to], e.Columns[from+1:to+1])
	} else {
		copy(e.Columns[to+1:from+1], e.Columns[to:from])
	}
	e.Columns[to] = col
	return nil
}

// MoveColumnUp swaps the column at index with its predecessor. The first
// column stays where it is.
func (e *Entity) MoveColumnUp(index int) error {
	if err := checkIndex("move column up", index, len(e.Columns)); err != nil {
		return err
	}
	if index == 0 {
		return nil
	}
	return e.MoveColumn(index, index-1)
}

// MoveColumnDown swaps the column at index with its successor. The last
// column stays where it is.
func (e *Entity) MoveColumnDown(index int) error {
	if err := checkIndex("move column down", index, len(e.Columns)); err != nil {
		return err
	}
	if index == len(e.Columns)-1 {
		return nil
	}
	return e.MoveColumn(index, index+1)
}

// SuggestColumn returns the column the editor adds when the user asks for a
// new one: "<entity>_id" for the first column, "<entity>_col<n>" afterwards,
// where n is the new column's one-based position.
func SuggestColumn(entityName string, existing int) Column {
	name := entityName + "_id"
	if existing > 0 {
		name = fmt.Sprintf("%s_col%d", entityName, existing+1)
	}
	return Column{Name: name, Type: TypeVarchar}
}

package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func columnNames(e *Entity) []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

func entityWith(names ...string) *Entity {
	e := NewEntity("t")
	for _, n := range names {
		e.AddColumn(Column{Name: n, Type: TypeInt})
	}
	return e
}

func TestEntityColumnEditing(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		edit    func(e *Entity) error
		want    []string
		wantErr error
	}{
		{
			name: "remove middle",
			edit: func(e *Entity) error { return e.RemoveColumn(1) },
			want: []string{"a", "c"},
		},
		{
			name:    "remove out of range",
			edit:    func(e *Entity) error { return e.RemoveColumn(3) },
			want:    []string{"a", "b", "c"},
			wantErr: ErrOutOfRange,
		},
		{
			name:    "remove negative",
			edit:    func(e *Entity) error { return e.RemoveColumn(-1) },
			want:    []string{"a", "b", "c"},
			wantErr: ErrOutOfRange,
		},
		{
			name: "move forward",
			edit: func(e *Entity) error { return e.MoveColumn(0, 2) },
			want: []string{"b", "c", "a"},
		},
		{
			name: "move backward",
			edit: func(e *Entity) error { return e.MoveColumn(2, 0) },
			want: []string{"c", "a", "b"},
		},
		{
			name:    "move out of range",
			edit:    func(e *Entity) error { return e.MoveColumn(0, 3) },
			want:    []string{"a", "b", "c"},
			wantErr: ErrOutOfRange,
		},
		{
			name: "up",
			edit: func(e *Entity) error { return e.MoveColumnUp(1) },
			want: []string{"b", "a", "c"},
		},
		{
			name: "up at top",
			edit: func(e *Entity) error { return e.MoveColumnUp(0) },
			want: []string{"a", "b", "c"},
		},
		{
			name: "down",
			edit: func(e *Entity) error { return e.MoveColumnDown(1) },
			want: []string{"a", "c", "b"},
		},
		{
			name: "down at bottom",
			edit: func(e *Entity) error { return e.MoveColumnDown(2) },
			want: []string{"a", "b", "c"},
		},
		{
			name:    "down out of range",
			edit:    func(e *Entity) error { return e.MoveColumnDown(5) },
			want:    []string{"a", "b", "c"},
			wantErr: ErrOutOfRange,
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := entityWith("a", "b", "c")
			err := tc.edit(e)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(columnNames(e), tc.want); diff != "" {
				t.Errorf("(-got, +want)\n%s", diff)
			}
		})
	}
}

func TestRangeError(t *testing.T) {
	t.Parallel()

	err := entityWith("a").RemoveColumn(4)
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T, want *RangeError", err)
	}
	if re.Index != 4 || re.Len != 1 {
		t.Errorf("RangeError = %+v", re)
	}
}

func TestSuggestColumn(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		entity   string
		existing int
		want     Column
	}{
		{entity: "users", existing: 0, want: Column{Name: "users_id", Type: TypeVarchar}},
		{entity: "users", existing: 1, want: Column{Name: "users_col2", Type: TypeVarchar}},
		{entity: "orders", existing: 4, want: Column{Name: "orders_col5", Type: TypeVarchar}},
	} {
		got := SuggestColumn(tc.entity, tc.existing)
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("SuggestColumn(%q, %d) (-got, +want)\n%s", tc.entity, tc.existing, diff)
		}
	}
}

func TestEntityCloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := Entity{Name: "t", Columns: []Column{
		{Name: "s", Type: TypeEnum, EnumValues: []string{"a"}, Default: strptr("a")},
	}}
	c := orig.Clone()
	c.Columns[0].EnumValues[0] = "z"
	*c.Columns[0].Default = "z"
	c.Columns[0].Name = "changed"

	if diff := cmp.Diff(orig.Columns[0], Column{Name: "s", Type: TypeEnum, EnumValues: []string{"a"}, Default: strptr("a")}); diff != "" {
		t.Errorf("original changed (-got, +want)\n%s", diff)
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	if len(Catalog) != 34 {
		t.Errorf("len(Catalog) = %d, want 34", len(Catalog))
	}
	seen := map[DataType]bool{}
	for _, ti := range Catalog {
		if seen[ti.Name] {
			t.Errorf("duplicate catalog entry %s", ti.Name)
		}
		seen[ti.Name] = true
		if ti.HasLength != ti.Name.HasLength() {
			t.Errorf("%s: HasLength = %v", ti.Name, ti.HasLength)
		}
	}
	for _, tt := range []DataType{TypeVarchar, TypeChar, TypeBinary, TypeVarBinary, TypeInt, TypeInteger, TypeBigInt} {
		if !tt.HasLength() {
			t.Errorf("%s should take a length", tt)
		}
	}
	for _, tt := range []DataType{TypeText, TypeDecimal, TypeJSON, TypeEnum} {
		if tt.HasLength() {
			t.Errorf("%s should not take a length", tt)
		}
	}
	if TypeInteger.IsKnown() {
		t.Error("INTEGER is not in the catalog")
	}
	if !TypeGeometry.IsKnown() {
		t.Error("GEOMETRY is in the catalog")
	}
}

package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxIdentifierLength is the MySQL limit for table and column names.
const maxIdentifierLength = 64

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ValidIdentifier checks if a name is a plain, unquoted SQL identifier.
func ValidIdentifier(name string) bool {
	if name == "" || len(name) > maxIdentifierLength {
		return false
	}
	for i, r := range name {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 {
			if !letter {
				return false
			}
		} else if !letter && !(r >= '0' && r <= '9') && r != '$' {
			return false
		}
	}
	return true
}

var identifier = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s != "" && !ValidIdentifier(s) {
		return errors.New("must be letters, digits, underscores or $, start with a letter or underscore and be at most 64 characters")
	}
	return nil
})

var knownType = validation.By(func(value interface{}) error {
	t, _ := value.(DataType)
	if t != "" && !t.IsKnown() {
		return fmt.Errorf("unsupported column type %q", string(t))
	}
	return nil
})

// Validate checks the column against the strict editing rules.
func (c Column) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, identifier),
		validation.Field(&c.Type, validation.Required, knownType),
		validation.Field(&c.Length, validation.Match(digitsOnly).Error("must contain digits only")),
		validation.Field(&c.EnumValues, validation.When(c.Type.IsEnumerated(), validation.Required.Error("ENUM and SET columns need at least one value"))),
	)
}

// Validate checks the entity name, every column, and that column names are
// unique within the entity.
func (e Entity) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, identifier),
		validation.Field(&e.Columns, validation.By(uniqueColumnNames)),
	)
}

func uniqueColumnNames(value interface{}) error {
	cols, _ := value.([]Column)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		key := strings.ToLower(c.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[key] = true
	}
	return nil
}

// ValidateEntity runs strict validation and wraps failures in ErrInvalidInput.
func ValidateEntity(e Entity) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

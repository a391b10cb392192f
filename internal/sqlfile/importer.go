// Package sqlfile reads SQL scripts handed to the editor for import.
//
// Importing is a stub: the script is read and split into statements so the
// caller can report what arrived, but nothing is turned into entities.
package sqlfile

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultMaxSize caps the size of an imported script.
const DefaultMaxSize = 10 << 20 // 10 MB

// Result describes an imported script.
type Result struct {
	Name       string   `json:"name"`
	Bytes      int      `json:"bytes"`
	Statements []string `json:"statements"`
	Content    string   `json:"-"`
}

// Importer reads scripts up to a size limit.
type Importer struct {
	maxSize int64
	log     zerolog.Logger
}

// NewImporter creates an importer. A non-positive maxSize uses DefaultMaxSize.
func NewImporter(maxSize int64, log zerolog.Logger) *Importer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Importer{maxSize: maxSize, log: log}
}

// Read consumes r and returns its text and statements.
func (im *Importer) Read(name string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, im.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > im.maxSize {
		return nil, fmt.Errorf("reading %s: script larger than %d bytes", name, im.maxSize)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("reading %s: script is not valid UTF-8", name)
	}

	content := string(data)
	res := &Result{
		Name:       name,
		Bytes:      len(data),
		Statements: SplitStatements(content),
		Content:    content,
	}

	im.log.Info().
		Str("file", name).
		Int("bytes", res.Bytes).
		Int("statements", len(res.Statements)).
		Msg("sql script imported")
	im.log.Debug().Str("file", name).Msg(content)

	return res, nil
}

// Package config loads field specification documents.
//
// A document lists the fields of the generated word in order:
//
//	normalize: nfc            # optional Unicode normalization of candidates
//	parts:
//	  - "a,b,c"               # literal field, split on unescaped ','
//	  - pattern: "[0-9]{2}"   # pattern field, see package pattern
//
// YAML (and therefore JSON) documents are decoded with gopkg.in/yaml.v3;
// files ending in .cue are evaluated with the CUE SDK, which allows the
// field list to be computed.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/crunch/internal/field"
)

// Error codes for configuration loading.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Config file not found or unreadable
	ErrCodeFormat       = "E003" // Unsupported file extension
	ErrCodeDecodeFailed = "E004" // YAML/CUE decode failed
	ErrCodeNoParts      = "E005" // Document has no parts
	ErrCodeMalformed    = "E006" // A part is neither a string nor {pattern: ...}
	ErrCodeNormalize    = "E007" // Unknown normalization form
)

// LoadError reports a configuration document that cannot be used.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int // 1-based; 0 when unknown
	Column  int
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the E-code of the error.
func (e *LoadError) ErrorCode() string {
	return e.Code
}

// Format identifies a document syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatCUE
)

func (f Format) String() string {
	if f == FormatCUE {
		return "cue"
	}
	return "yaml"
}

// FormatFromPath picks the decoder for path by extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return 0, &LoadError{
		Code:    ErrCodeFormat,
		File:    path,
		Message: fmt.Sprintf("unsupported config extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path)),
	}
}

// File is a decoded field specification document.
type File struct {
	Path      string
	Normalize field.Form
	Parts     []field.Spec
}

// Load reads and decodes the document at path.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, File: path, Message: "config file not found"}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, File: path, Message: "reading config file", Err: err}
	}
	f, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Parse decodes data as format. name is used in error messages and by CUE
// for positions.
func Parse(data []byte, format Format, name string) (*File, error) {
	var (
		f   *File
		err error
	)
	switch format {
	case FormatCUE:
		f, err = parseCUE(data, name)
	default:
		f, err = parseYAML(data, name)
	}
	if err != nil {
		return nil, err
	}
	f.Path = name
	if len(f.Parts) == 0 {
		return nil, &LoadError{Code: ErrCodeNoParts, File: name, Message: "no parts defined"}
	}
	return f, nil
}

func parseNormalize(s, name string, line, col int) (field.Form, error) {
	form, err := field.ParseForm(s)
	if err != nil {
		return field.FormNone, &LoadError{Code: ErrCodeNormalize, File: name, Line: line, Column: col, Message: err.Error()}
	}
	return form, nil
}

// malformed builds the error for a part that is neither a literal nor a
// pattern mapping.
func malformed(name string, part, line, col int, format string, args ...any) error {
	return &LoadError{
		Code:    ErrCodeMalformed,
		File:    name,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf("part %d is malformed", part),
		Err:     &field.Error{Field: part, Message: fmt.Sprintf(format, args...)},
	}
}

// Domain prefix for the config digest. The version suffix allows the
// encoding to change without colliding with old digests.
const digestDomain = "crunch/config/v1"

// Digest returns a stable hex SHA-256 identifying the document's fields and
// normalization. Formatting, comments and file syntax do not affect it.
func Digest(f *File) string {
	type part struct {
		Literal *string `json:"literal,omitempty"`
		Pattern *string `json:"pattern,omitempty"`
	}
	doc := struct {
		Normalize string `json:"normalize"`
		Parts     []part `json:"parts"`
	}{Normalize: string(f.Normalize)}

	for _, spec := range f.Parts {
		switch s := spec.(type) {
		case field.Literal:
			raw := s.Raw
			doc.Parts = append(doc.Parts, part{Literal: &raw})
		case field.Pattern:
			expr := s.Expr
			doc.Parts = append(doc.Parts, part{Pattern: &expr})
		}
	}

	data, _ := json.Marshal(doc)
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

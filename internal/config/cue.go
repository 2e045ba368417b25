package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/crunch/internal/field"
)

// parseCUE evaluates a CUE document. The document must be concrete: every
// part has to resolve to a string or a struct with a string pattern field.
func parseCUE(data []byte, name string) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeDecodeFailed, name, "evaluating CUE", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeDecodeFailed, name, "CUE document is not concrete", err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, cueLoadError(ErrCodeDecodeFailed, name, "iterating CUE document", err)
	}
	for iter.Next() {
		switch label := iter.Selector().String(); label {
		case "parts", "normalize":
		default:
			line, col := position(iter.Value().Pos())
			return nil, &LoadError{Code: ErrCodeDecodeFailed, File: name, Line: line, Column: col, Message: fmt.Sprintf("unknown field %q", label)}
		}
	}

	f := &File{}
	if nv := v.LookupPath(cue.ParsePath("normalize")); nv.Exists() {
		s, err := nv.String()
		if err != nil {
			return nil, cueLoadError(ErrCodeNormalize, name, "normalize must be a string", err)
		}
		line, col := position(nv.Pos())
		if f.Normalize, err = parseNormalize(s, name, line, col); err != nil {
			return nil, err
		}
	}

	parts := v.LookupPath(cue.ParsePath("parts"))
	if !parts.Exists() {
		return f, nil
	}
	list, err := parts.List()
	if err != nil {
		return nil, cueLoadError(ErrCodeDecodeFailed, name, "parts must be a list", err)
	}
	for i := 1; list.Next(); i++ {
		spec, err := cuePart(list.Value(), i, name)
		if err != nil {
			return nil, err
		}
		f.Parts = append(f.Parts, spec)
	}
	return f, nil
}

func cuePart(v cue.Value, part int, name string) (field.Spec, error) {
	line, col := position(v.Pos())
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, malformed(name, part, line, col, "%v", err)
		}
		return field.Literal{Raw: s}, nil

	case cue.StructKind:
		fields, err := v.Fields()
		if err != nil {
			return nil, malformed(name, part, line, col, "%v", err)
		}
		for fields.Next() {
			if label := fields.Selector().String(); label != "pattern" {
				fl, fc := position(fields.Value().Pos())
				return nil, malformed(name, part, fl, fc, "unknown key %q (only \"pattern\" is allowed)", label)
			}
		}
		pv := v.LookupPath(cue.ParsePath("pattern"))
		if !pv.Exists() {
			return nil, malformed(name, part, line, col, "struct has no pattern field")
		}
		expr, err := pv.String()
		if err != nil {
			return nil, malformed(name, part, line, col, "pattern must be a string")
		}
		return field.Pattern{Expr: expr}, nil
	}
	return nil, malformed(name, part, line, col, "expected a string or {pattern: ...}, got %v", v.Kind())
}

func position(pos token.Pos) (int, int) {
	if !pos.IsValid() {
		return 0, 0
	}
	return pos.Line(), pos.Column()
}

// cueLoadError converts a CUE error, keeping the position of its first
// underlying error.
func cueLoadError(code, name, message string, err error) *LoadError {
	le := &LoadError{Code: code, File: name, Message: message, Err: err}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Line, le.Column = position(errs[0].Position())
		le.Err = fmt.Errorf("%s", cueerrors.Details(errs[0], nil))
	}
	return le
}

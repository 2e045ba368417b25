package cli

import (
	"context"
	"errors"

	"github.com/roach88/crunch/internal/config"
	"github.com/roach88/crunch/internal/generate"
	"github.com/roach88/crunch/internal/pattern"
)

// errorCode is generate.ErrorCode with a generic fallback.
func errorCode(err error) string {
	if code := generate.ErrorCode(err); code != "" {
		return code
	}
	return config.ErrCodeGeneric
}

// exitCodeFor maps err to a process exit code: problems with the input are
// command errors, failures while writing are run failures.
func exitCodeFor(err error) int {
	if generate.IsSinkWriteError(err) || errors.Is(err, context.Canceled) {
		return ExitFailure
	}
	return ExitCommandError
}

// errorDetails returns structured context for err, or nil.
func errorDetails(err error) any {
	var le *config.LoadError
	if errors.As(err, &le) && le.Line > 0 {
		return map[string]any{"file": le.File, "line": le.Line, "column": le.Column}
	}
	var pe *pattern.Error
	if errors.As(err, &pe) && pe.Pos >= 0 {
		return map[string]any{"pattern": pe.Expr, "offset": pe.Pos}
	}
	var we *generate.SinkWriteError
	if errors.As(err, &we) && we.Op == "write" {
		return map[string]any{"index": we.Index}
	}
	return nil
}

// fail reports err through formatter and returns the ExitError for it.
func fail(formatter *OutputFormatter, err error) error {
	code := errorCode(err)
	_ = formatter.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(exitCodeFor(err), code, err)
}

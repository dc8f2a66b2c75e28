package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/sheetq/internal/config"
	"github.com/roach88/sheetq/internal/engine"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/querydoc"
	"github.com/roach88/sheetq/internal/store"
)

// LoadError represents an error that occurred while loading a workbook,
// a config or a query document.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// openStore opens the workbook database named by --db or SHEETQ_DB.
func openStore(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, WrapExitError(ExitCommandError, "no workbook database",
			&LoadError{Code: ErrCodeNotFound, Message: "pass --db or set " + EnvPrefix + "_DB"})
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database",
			&LoadError{Code: ErrCodeGeneric, Message: opts.Database, Err: err})
	}
	return st, nil
}

// loadEngineConfig compiles the workbook config, if there is one.
// Without a config only untyped rows are available.
func loadEngineConfig(opts *RootOptions) (engine.Config, error) {
	path := config.Find(opts.Config, opts.Database)
	if path == "" {
		return (*config.Workbook)(nil).EngineConfig()
	}

	wb, err := config.Load(path)
	if err != nil {
		return engine.Config{}, WrapExitError(ExitCommandError, "failed to load config",
			&LoadError{Code: ErrCodeConfig, Message: path, Err: err})
	}
	cfg, err := wb.EngineConfig()
	if err != nil {
		return engine.Config{}, WrapExitError(ExitCommandError, "failed to load config",
			&LoadError{Code: ErrCodeConfig, Message: path, Err: err})
	}
	return cfg, nil
}

// loadQuery decodes a query document from a file, or from stdin when path
// is "-".
func loadQuery(path string, stdin io.Reader) (queryir.Descriptor, error) {
	var (
		desc queryir.Descriptor
		err  error
	)
	if path == "-" {
		var data []byte
		data, err = io.ReadAll(stdin)
		if err == nil {
			desc, err = querydoc.Decode(data)
		}
	} else {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return desc, WrapExitError(ExitCommandError, "query file not found",
				&LoadError{Code: ErrCodeNotFound, Message: path})
		}
		desc, err = querydoc.DecodeFile(path)
	}
	if err != nil {
		return desc, WrapExitError(ExitCommandError, "invalid query document",
			&LoadError{Code: ErrCodeQueryDoc, Message: path, Err: err})
	}
	return desc, nil
}

// loadErrorCode returns the CLI error code carried by err, or fallback.
func loadErrorCode(err error, fallback string) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return fallback
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/groundhog/internal/compiler"
)

// LoadResult contains the results of loading a bundle from disk.
type LoadResult struct {
	Bundle    *compiler.Bundle
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during bundle loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadBundle loads and compiles a bundle from a .cue file or a directory
// of .cue files. Compilation fails fast: the first bad fact or query
// aborts the load. Use LoadBundleValue plus compiler.ValidateBundle to
// collect every problem instead.
func LoadBundle(path string) (*LoadResult, error) {
	value, fileCount, err := LoadBundleValue(path)
	if err != nil {
		return nil, err
	}

	bundle, err := compiler.CompileBundle(value)
	if err != nil {
		return nil, convertCompileError(err)
	}

	return &LoadResult{
		Bundle:    bundle,
		CUEValue:  value,
		FileCount: fileCount,
	}, nil
}

// LoadBundleValue builds the raw CUE value for a bundle path without
// compiling it. The path may be a single .cue file or a directory.
func LoadBundleValue(path string) (cue.Value, int, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("bundle path not found: %s", path)}
	}
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing bundle path: %v", err)}
	}
	if info.IsDir() {
		return loadBundleDir(path)
	}
	return loadBundleFile(path)
}

// loadBundleFile compiles a single .cue file.
func loadBundleFile(path string) (cue.Value, int, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading bundle file: %v", err)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return value, 1, nil
}

// loadBundleDir loads every .cue file under a directory as one instance.
func loadBundleDir(dir string) (cue.Value, int, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return value, len(cueFiles), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Query execution errors
	ErrCodeQueryNotFound  = "E201" // Named query not defined in the bundle
	ErrCodeSearchFailed   = "E202" // Search aborted with an error
	ErrCodeBudgetExceeded = "E203" // Step budget exhausted
)

// MapFieldToErrorCode maps a bundle compile error field to an error code.
// Compile failures reuse the compiler's validation codes so consumers see
// a single code space across compile and validate.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "bundle":
		return compiler.ErrBundleEmpty
	case strings.HasPrefix(field, "graph."), strings.HasPrefix(field, "queries."):
		return compiler.ErrCompileFailed
	default:
		return ErrCodeGeneric
	}
}

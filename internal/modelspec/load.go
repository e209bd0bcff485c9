// Package modelspec loads process-model definitions from CUE files,
// validates them against an embedded schema, and builds the executable
// model: a species catalog plus constructed processes.
package modelspec

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSrc string

// Document is the decoded shape of a model definition.
type Document struct {
	Name      string       `json:"name"`
	Catalog   string       `json:"catalog"`
	Conserved []string     `json:"conserved"`
	Processes []ProcessDef `json:"processes"`
}

// ProcessDef is one process entry in a model definition.
type ProcessDef struct {
	ID           string   `json:"id"`
	Reaction     string   `json:"reaction"`
	RefComponent string   `json:"ref_component"`
	RateEquation string   `json:"rate_equation"`
	Parameters   []string `json:"parameters"`
	// Conserved overrides the model-level conserved set when non-nil.
	Conserved []string `json:"conserved"`
}

// LoadError reports a definition file that failed to load or validate.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Load reads every .cue file in dir, unifies them with the schema, and
// decodes the model declaration. Files are unified in name order so
// definitions may be split across files.
func Load(dir string) (*Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: fmt.Sprintf("model directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Message: "not a directory"}
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &LoadError{Path: dir, Message: "no CUE files found"}
	}

	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Path: "schema.cue", Message: cueerrors.Details(err, nil)}
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: err.Error()}
		}
		fv := ctx.CompileBytes(data, cue.Filename(path))
		if err := fv.Err(); err != nil {
			return nil, &LoadError{Path: path, Message: cueErrorDetails(err)}
		}
		v = v.Unify(fv)
		if err := v.Err(); err != nil {
			return nil, &LoadError{Path: path, Message: cueErrorDetails(err)}
		}
	}
	if err := v.Validate(); err != nil {
		return nil, &LoadError{Path: dir, Message: cueErrorDetails(err)}
	}

	modelVal := v.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, &LoadError{Path: dir, Message: "no model declared"}
	}

	var doc Document
	if err := modelVal.Decode(&doc); err != nil {
		return nil, &LoadError{Path: dir, Message: cueErrorDetails(err)}
	}
	return &doc, nil
}

// cueErrorDetails formats a CUE error with file positions, one line per
// underlying error.
func cueErrorDetails(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		pos := e.Position()
		if pos.IsValid() {
			lines[i] = fmt.Sprintf("%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), e.Error())
		} else {
			lines[i] = e.Error()
		}
	}
	return strings.Join(lines, "\n")
}

func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

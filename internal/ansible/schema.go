// SPDX-License-Identifier: MPL-2.0

package ansible

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed params_schema.cue
var paramsSchema string

// ErrInvalidParams is the sentinel wrapped by InvalidParamsError.
var ErrInvalidParams = errors.New("invalid module parameters")

var (
	truthy = []string{"y", "yes", "on", "1", "true", "t"}
	falsy  = []string{"n", "no", "off", "0", "false", "f"}
)

type (
	// ParamSpec binds a module name to its schema definition.
	ParamSpec struct {
		Module     string
		Definition string
		Required   []string
	}

	// InvalidParamsError is returned when parameters fail boundary validation.
	InvalidParamsError struct {
		Module string
		Reason string
	}

	// schemaCache compiles the schema once. A cue.Context is not safe for
	// concurrent use, so every evaluation holds mu.
	schemaCache struct {
		mu   sync.Mutex
		once sync.Once
		ctx  *cue.Context
		root cue.Value
		err  error
	}
)

var schemas schemaCache

func (e *InvalidParamsError) Error() string { return e.Reason }

func (e *InvalidParamsError) Unwrap() error { return ErrInvalidParams }

func (c *schemaCache) load() (*cue.Context, cue.Value, error) {
	c.once.Do(func() {
		c.ctx = cuecontext.New()
		c.root = c.ctx.CompileString(paramsSchema)
		c.err = c.root.Err()
	})
	return c.ctx, c.root, c.err
}

// Validate coerces loosely typed values the way Ansible does, then checks
// params against the module's CUE definition. Params is updated in place with
// the coerced values.
func (s ParamSpec) Validate(params map[string]any) error {
	schemas.mu.Lock()
	defer schemas.mu.Unlock()

	ctx, root, err := schemas.load()
	if err != nil {
		return fmt.Errorf("internal error: failed to compile parameter schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath(s.Definition))
	if !def.Exists() {
		return fmt.Errorf("internal error: no schema definition %s", s.Definition)
	}

	kinds := map[string]cue.Kind{}
	it, err := def.Fields(cue.Optional(true))
	if err != nil {
		return fmt.Errorf("internal error: %w", err)
	}
	for it.Next() {
		kinds[it.Selector().Unquoted()] = it.Value().IncompleteKind()
	}

	var unsupported []string
	for k := range params {
		if _, ok := kinds[k]; !ok {
			unsupported = append(unsupported, k)
		}
	}
	if len(unsupported) > 0 {
		slices.Sort(unsupported)
		supported := make([]string, 0, len(kinds))
		for k := range kinds {
			supported = append(supported, k)
		}
		slices.Sort(supported)
		return &InvalidParamsError{
			Module: s.Module,
			Reason: fmt.Sprintf("Unsupported parameters for (%s) module: %s. Supported parameters include: %s.",
				s.Module, strings.Join(unsupported, ", "), strings.Join(supported, ", ")),
		}
	}

	var missing []string
	for _, k := range s.Required {
		if _, ok := params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &InvalidParamsError{
			Module: s.Module,
			Reason: "missing required arguments: " + strings.Join(missing, ", "),
		}
	}

	for k, v := range params {
		params[k] = coerce(v, kinds[k])
	}

	unified := def.Unify(ctx.Encode(params))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &InvalidParamsError{
			Module: s.Module,
			Reason: "invalid parameters: " + strings.TrimSpace(cueerrors.Details(err, nil)),
		}
	}
	return nil
}

// coerce applies Ansible's conversions for bool and list options. Values
// that cannot be converted are returned unchanged for the schema to reject.
func coerce(v any, kind cue.Kind) any {
	switch kind {
	case cue.BoolKind:
		switch x := v.(type) {
		case string:
			lower := strings.ToLower(strings.TrimSpace(x))
			if slices.Contains(truthy, lower) {
				return true
			}
			if slices.Contains(falsy, lower) {
				return false
			}
		case float64:
			if x == 1 {
				return true
			}
			if x == 0 {
				return false
			}
		}
	case cue.ListKind:
		switch x := v.(type) {
		case string:
			parts := strings.Split(x, ",")
			out := make([]any, 0, len(parts))
			for _, p := range parts {
				out = append(out, strings.TrimSpace(p))
			}
			return out
		case float64:
			if x == math.Trunc(x) {
				return []any{fmt.Sprintf("%d", int64(x))}
			}
			return []any{fmt.Sprintf("%g", x)}
		}
	}
	return v
}

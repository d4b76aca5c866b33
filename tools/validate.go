package tools

import (
	"github.com/quillai/quill/errors"
)

// ValidateArgs checks a raw tool-call payload against the tool's declared
// arguments and returns the typed Args on success. Extra keys the model made
// up are ignored; declared keys must match their type tag.
func ValidateArgs(t Tool, raw map[string]any) (Args, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	for _, spec := range t.Args() {
		v, present := raw[spec.Name]
		if !present {
			if spec.Required {
				return nil, errors.New("missing required argument '%s'", spec.Name)
			}
			continue
		}
		if err := checkType(spec, v); err != nil {
			return nil, err
		}
	}
	return Args(raw), nil
}

func checkType(spec Argument, v any) error {
	switch spec.Type {
	case ArgString:
		if _, ok := v.(string); !ok {
			return errors.New("argument '%s' must be a string, got %T", spec.Name, v)
		}
	case ArgInteger:
		switch n := v.(type) {
		case int, int64:
		case float64:
			if n != float64(int64(n)) {
				return errors.New("argument '%s' must be an integer, got %v", spec.Name, n)
			}
		default:
			return errors.New("argument '%s' must be an integer, got %T", spec.Name, v)
		}
	case ArgBoolean:
		if _, ok := v.(bool); !ok {
			return errors.New("argument '%s' must be a boolean, got %T", spec.Name, v)
		}
	case ArgEnum:
		s, ok := v.(string)
		if !ok {
			return errors.New("argument '%s' must be a string, got %T", spec.Name, v)
		}
		for _, opt := range spec.Enum {
			if s == opt {
				return nil
			}
		}
		return errors.New("argument '%s' must be one of %v, got %q", spec.Name, spec.Enum, s)
	}
	return nil
}

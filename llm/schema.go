package llm

import "github.com/quillai/quill/tools"

// schemaProperties converts declared tool arguments into the JSON-schema
// property map shared (modulo wrapping) by every backend's tool format.
func schemaProperties(args []tools.Argument) (map[string]any, []string) {
	props := map[string]any{}
	var required []string
	for _, a := range args {
		p := map[string]any{"description": a.Description}
		switch a.Type {
		case tools.ArgInteger:
			p["type"] = "integer"
		case tools.ArgBoolean:
			p["type"] = "boolean"
		case tools.ArgEnum:
			p["type"] = "string"
			p["enum"] = a.Enum
		default:
			p["type"] = "string"
		}
		props[a.Name] = p
		if a.Required {
			required = append(required, a.Name)
		}
	}
	return props, required
}

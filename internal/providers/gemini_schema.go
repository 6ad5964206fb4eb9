package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// geminiResponseSchema converts a canonical JSON Schema into the OpenAPI-style
// subset the Generative Language API accepts: uppercase type names, nullable
// expressed as a flag instead of a ["<type>","null"] union, and keywords the
// API rejects stripped out.
func geminiResponseSchema(schemaRaw json.RawMessage) (map[string]any, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	converted := convertGeminiNode(root)
	m, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("structured schema root must be an object")
	}
	return m, nil
}

func convertGeminiNode(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for key, value := range n {
			switch key {
			case "type":
				typeName, nullable := splitNullableType(value)
				out["type"] = strings.ToUpper(typeName)
				if nullable {
					out["nullable"] = true
				}
			case "additionalProperties":
				// Not part of the accepted subset.
			case "properties":
				props, ok := value.(map[string]any)
				if !ok {
					continue
				}
				converted := make(map[string]any, len(props))
				for name, prop := range props {
					converted[name] = convertGeminiNode(prop)
				}
				out["properties"] = converted
			case "items":
				out["items"] = convertGeminiNode(value)
			default:
				out[key] = value
			}
		}
		return out
	case []any:
		converted := make([]any, len(n))
		for i, v := range n {
			converted[i] = convertGeminiNode(v)
		}
		return converted
	default:
		return node
	}
}

// splitNullableType resolves a JSON Schema type declaration (string or union
// array) into a single type name plus a nullable flag.
func splitNullableType(typeVal any) (string, bool) {
	switch t := typeVal.(type) {
	case string:
		return t, false
	case []any:
		name := ""
		nullable := false
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s == "null" {
				nullable = true
				continue
			}
			if name == "" {
				name = s
			}
		}
		if name == "" {
			name = "string"
		}
		return name, nullable
	default:
		return "string", false
	}
}

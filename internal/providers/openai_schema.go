package providers

import (
	"encoding/json"
	"fmt"
	"sort"
)

// openaiStrictSchema converts a canonical JSON Schema into the subset OpenAI
// strict structured outputs accepts: every object level must list all of its
// properties in "required", with optionality expressed only through
// ["<type>","null"] unions.
func openaiStrictSchema(schemaRaw json.RawMessage) (map[string]any, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	converted := convertOpenAINode(root)
	m, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("structured schema root must be an object")
	}
	return m, nil
}

func convertOpenAINode(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for key, value := range n {
			switch key {
			case "properties":
				props, ok := value.(map[string]any)
				if !ok {
					continue
				}
				converted := make(map[string]any, len(props))
				required := make([]string, 0, len(props))
				for name, prop := range props {
					converted[name] = convertOpenAINode(prop)
					required = append(required, name)
				}
				sort.Strings(required)
				out["properties"] = converted
				out["required"] = required
			case "required":
				// Replaced with the full property list above.
			case "items":
				out["items"] = convertOpenAINode(value)
			default:
				out[key] = value
			}
		}
		return out
	case []any:
		converted := make([]any, len(n))
		for i, v := range n {
			converted[i] = convertOpenAINode(v)
		}
		return converted
	default:
		return node
	}
}

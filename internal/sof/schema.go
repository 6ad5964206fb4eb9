package sof

// JSONSchema returns the canonical JSON Schema for Record as a generic map.
// It is passed to LLM providers as the structured output constraint and used
// locally to validate anything the model returns. Nullable fields carry a
// ["<type>","null"] type union; null is reserved for information genuinely
// absent from the source document.
func JSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_details": documentDetailsSchema(),
			"events": map[string]any{
				"type":  "array",
				"items": eventSchema(),
			},
			"laytime_notes": laytimeNotesSchema(),
			"approvals": map[string]any{
				"type":  []string{"array", "null"},
				"items": signatorySchema(),
			},
		},
		"required": []string{"document_details", "events", "laytime_notes"},
	}
}

func documentDetailsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_source":  nullableString(),
			"date_of_document": nullableString(),
			"port_name":        nullableString(),
			"vessel_name":      nullableString(),
			"voyage_number":    nullableString(),
			"parties":          partiesSchema(),
			"cargo":            cargoSchema(),
			"confidence":       confidenceProp(),
		},
	}
}

func partiesSchema() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": false,
		"properties": map[string]any{
			"shipowner_name":  nullableString(),
			"charterer_name":  nullableString(),
			"port_agent_name": nullableString(),
			"confidence":      confidenceProp(),
		},
	}
}

func cargoSchema() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": false,
		"properties": map[string]any{
			"operation_type": nullableString(),
			"cargo_type":     nullableString(),
			"quantity":       nullableNumber(),
			"unit":           nullableString(),
			"confidence":     confidenceProp(),
		},
	}
}

func eventSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"event_id":           map[string]any{"type": []string{"integer", "null"}},
			"event_type":         nullableString(),
			"start_date":         nullableString(),
			"start_time":         nullableString(),
			"end_date":           nullableString(),
			"end_time":           nullableString(),
			"duration_hours":     nullableNumber(),
			"weather_conditions": nullableString(),
			"remarks":            nullableString(),
			"confidence":         confidenceProp(),
		},
	}
}

func laytimeNotesSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"free_time_periods_identified":       nullableString(),
			"suspension_periods_identified":      nullableString(),
			"remarks_on_interruptions_or_delays": nullableString(),
			"confidence":                         confidenceProp(),
		},
	}
}

func signatorySchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"role":        nullableString(),
			"name":        nullableString(),
			"date_signed": nullableString(),
			"confidence":  confidenceProp(),
		},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func nullableNumber() map[string]any {
	return map[string]any{"type": []string{"number", "null"}}
}

func confidenceProp() map[string]any {
	return map[string]any{
		"type":    []string{"number", "null"},
		"minimum": 0.0,
		"maximum": 1.0,
	}
}

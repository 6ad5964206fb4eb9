package sof

import (
	"encoding/json"
	"errors"
	"testing"
)

const validRecordJSON = `{
	"document_details": {
		"document_source": "Statement of Facts",
		"date_of_document": "2024-03-14",
		"port_name": "Rotterdam",
		"vessel_name": "MV Horizon",
		"voyage_number": "V-112",
		"parties": {
			"shipowner_name": "Horizon Shipping Ltd",
			"charterer_name": "Delta Grains BV",
			"port_agent_name": null,
			"confidence": 0.97
		},
		"cargo": {
			"operation_type": "loading",
			"cargo_type": "wheat",
			"quantity": 25000,
			"unit": "MT",
			"confidence": 0.95
		},
		"confidence": 0.96
	},
	"events": [
		{
			"event_id": 1,
			"event_type": "loading",
			"start_date": "2024-03-14",
			"start_time": "08:00",
			"end_date": "2024-03-14",
			"end_time": "14:00",
			"duration_hours": 6.0,
			"weather_conditions": "clear",
			"remarks": null,
			"confidence": 0.98
		}
	],
	"laytime_notes": {
		"free_time_periods_identified": null,
		"suspension_periods_identified": null,
		"remarks_on_interruptions_or_delays": "none recorded",
		"confidence": 0.9
	},
	"approvals": [
		{"role": "Master", "name": "J. Okafor", "date_signed": "2024-03-15", "confidence": 0.92}
	]
}`

func TestValidate_ConformingRecord(t *testing.T) {
	if err := Validate(json.RawMessage(validRecordJSON)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_RejectsNonJSON(t *testing.T) {
	err := Validate(json.RawMessage("the vessel arrived at 08:00"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
}

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	err := Validate(json.RawMessage(`{"events": []}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
}

func TestValidate_RejectsConfidenceOutOfBounds(t *testing.T) {
	payload := `{
		"document_details": {"confidence": 1.5},
		"events": [],
		"laytime_notes": {}
	}`
	err := Validate(json.RawMessage(payload))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() error = %v, want *ValidationError for confidence > 1.0", err)
	}
}

func TestValidate_RejectsUnknownFields(t *testing.T) {
	payload := `{
		"document_details": {"berth_number": "7"},
		"events": [],
		"laytime_notes": {}
	}`
	err := Validate(json.RawMessage(payload))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Validate() error = %v, want *ValidationError for unknown field", err)
	}
}

func TestDecode_PopulatesRecord(t *testing.T) {
	rec, err := Decode(json.RawMessage(validRecordJSON))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if rec.DocumentDetails.VesselName == nil || *rec.DocumentDetails.VesselName != "MV Horizon" {
		t.Fatalf("vessel_name = %v, want MV Horizon", rec.DocumentDetails.VesselName)
	}
	if len(rec.Events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(rec.Events))
	}
	ev := rec.Events[0]
	if ev.DurationHours == nil || *ev.DurationHours != 6.0 {
		t.Fatalf("duration_hours = %v, want 6.0", ev.DurationHours)
	}
	if len(rec.Approvals) != 1 {
		t.Fatalf("len(approvals) = %d, want 1", len(rec.Approvals))
	}
}

func TestDecode_NullLeavesStayNil(t *testing.T) {
	// Information genuinely absent from the source must decode to nil,
	// never a guessed value.
	payload := `{
		"document_details": {
			"document_source": "SOF",
			"vessel_name": null
		},
		"events": [],
		"laytime_notes": {}
	}`
	rec, err := Decode(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.DocumentDetails.VesselName != nil {
		t.Fatalf("vessel_name = %q, want nil", *rec.DocumentDetails.VesselName)
	}
	if rec.DocumentDetails.Parties != nil {
		t.Fatalf("parties = %+v, want nil", rec.DocumentDetails.Parties)
	}
}

func TestValidate_ConfidenceBoundsAcrossRecord(t *testing.T) {
	rec, err := Decode(json.RawMessage(validRecordJSON))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	check := func(name string, c *float64) {
		t.Helper()
		if c == nil {
			return
		}
		if *c < 0.0 || *c > 1.0 {
			t.Fatalf("%s confidence %v outside [0,1]", name, *c)
		}
	}

	check("document_details", rec.DocumentDetails.Confidence)
	if p := rec.DocumentDetails.Parties; p != nil {
		check("parties", p.Confidence)
	}
	if c := rec.DocumentDetails.Cargo; c != nil {
		check("cargo", c.Confidence)
	}
	for _, ev := range rec.Events {
		check("event", ev.Confidence)
	}
	check("laytime_notes", rec.LaytimeNotes.Confidence)
	for _, s := range rec.Approvals {
		check("signatory", s.Confidence)
	}
}

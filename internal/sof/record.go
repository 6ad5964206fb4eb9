// Package sof defines the structured target shape for Statement of Facts
// documents. Every LLM extraction and the final adjudication must conform to
// this schema; externally sourced payloads are validated at the ingestion
// boundary and rejected with a typed error rather than coerced.
package sof

// Record is the top-level structured representation of a Statement of Facts.
// Events are ordered chronologically as found in the source document.
type Record struct {
	DocumentDetails DocumentDetails `json:"document_details"`
	Events          []Event         `json:"events"`
	LaytimeNotes    LaytimeNotes    `json:"laytime_notes"`
	Approvals       []Signatory     `json:"approvals,omitempty"`
}

// DocumentDetails captures document-level identification fields.
// Nil means the information is genuinely absent from the source text.
type DocumentDetails struct {
	DocumentSource *string  `json:"document_source"`
	DateOfDocument *string  `json:"date_of_document"`
	PortName       *string  `json:"port_name"`
	VesselName     *string  `json:"vessel_name"`
	VoyageNumber   *string  `json:"voyage_number"`
	Parties        *Parties `json:"parties"`
	Cargo          *Cargo   `json:"cargo"`
	Confidence     *float64 `json:"confidence"`
}

// Parties identifies the commercial parties named in the document.
type Parties struct {
	ShipownerName *string  `json:"shipowner_name"`
	ChartererName *string  `json:"charterer_name"`
	PortAgentName *string  `json:"port_agent_name"`
	Confidence    *float64 `json:"confidence"`
}

// Cargo describes the cargo operation covered by the document.
type Cargo struct {
	OperationType *string  `json:"operation_type"`
	CargoType     *string  `json:"cargo_type"`
	Quantity      *float64 `json:"quantity"`
	Unit          *string  `json:"unit"`
	Confidence    *float64 `json:"confidence"`
}

// Event is a single chronological port/vessel event. Every event should carry
// both start_time and end_time; instantaneous events use the same timestamp
// for both, and duration_hours is computed when the timestamps differ.
type Event struct {
	EventID           *int     `json:"event_id"`
	EventType         *string  `json:"event_type"`
	StartDate         *string  `json:"start_date"`
	StartTime         *string  `json:"start_time"`
	EndDate           *string  `json:"end_date"`
	EndTime           *string  `json:"end_time"`
	DurationHours     *float64 `json:"duration_hours"`
	WeatherConditions *string  `json:"weather_conditions"`
	Remarks           *string  `json:"remarks"`
	Confidence        *float64 `json:"confidence"`
}

// LaytimeNotes collects laytime-relevant observations.
type LaytimeNotes struct {
	FreeTimePeriodsIdentified      *string  `json:"free_time_periods_identified"`
	SuspensionPeriodsIdentified    *string  `json:"suspension_periods_identified"`
	RemarksOnInterruptionsOrDelays *string  `json:"remarks_on_interruptions_or_delays"`
	Confidence                     *float64 `json:"confidence"`
}

// Signatory records an approval signature on the document.
type Signatory struct {
	Role       *string  `json:"role"`
	Name       *string  `json:"name"`
	DateSigned *string  `json:"date_signed"`
	Confidence *float64 `json:"confidence"`
}

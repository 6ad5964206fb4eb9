package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/portledger/sofextract/internal/extract"
	"github.com/portledger/sofextract/internal/providers"
	"github.com/portledger/sofextract/internal/sof"
)

// fakeExtractor records pass temperatures and call ordering.
type fakeExtractor struct {
	mu           sync.Mutex
	temps        []float64
	extractErr   error
	adjudicated  bool
	extractsDone int

	adjudicateFn func(a, b *sof.Record) (*sof.Record, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, temperature float64) (*sof.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adjudicated {
		return nil, errors.New("extract called after adjudication")
	}
	f.temps = append(f.temps, temperature)
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	f.extractsDone++
	conf := 0.5 + temperature
	return &sof.Record{
		DocumentDetails: sof.DocumentDetails{Confidence: &conf},
	}, nil
}

func (f *fakeExtractor) Adjudicate(ctx context.Context, text string, a, b *sof.Record) (*sof.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.extractsDone != 2 {
		return nil, fmt.Errorf("adjudicate started with %d extractions complete", f.extractsDone)
	}
	f.adjudicated = true
	if f.adjudicateFn != nil {
		return f.adjudicateFn(a, b)
	}
	return a, nil
}

func TestProcess_RunsBothPassesThenAdjudicates(t *testing.T) {
	fake := &fakeExtractor{}
	p, err := New(Config{Extractor: fake})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var gotA, gotB *sof.Record
	fake.adjudicateFn = func(a, b *sof.Record) (*sof.Record, error) {
		gotA, gotB = a, b
		return a, nil
	}

	if _, err := p.Process(context.Background(), "doc text"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sort.Float64s(fake.temps)
	if len(fake.temps) != 2 || fake.temps[0] != 0.0 || math.Abs(fake.temps[1]-0.3) > 1e-9 {
		t.Fatalf("pass temperatures = %v, want [0.0, 0.3]", fake.temps)
	}
	if !fake.adjudicated {
		t.Fatal("adjudication never ran")
	}
	if gotA == nil || gotB == nil {
		t.Fatal("adjudicator did not receive both candidates")
	}
	// Candidate order follows pass order: A from the first pass (temp 0.0),
	// B from the second (temp 0.3).
	if gotA.DocumentDetails.Confidence == nil || *gotA.DocumentDetails.Confidence != 0.5 {
		t.Fatalf("candidate A confidence = %v, want 0.5 (first pass)", gotA.DocumentDetails.Confidence)
	}
	if gotB.DocumentDetails.Confidence == nil || math.Abs(*gotB.DocumentDetails.Confidence-0.8) > 1e-9 {
		t.Fatalf("candidate B confidence = %v, want 0.8 (second pass)", gotB.DocumentDetails.Confidence)
	}
}

func TestProcess_PropagatesExtractionErrorsUnmodified(t *testing.T) {
	wantErr := &extract.ServiceError{Provider: "gemini", Err: errors.New("boom")}
	fake := &fakeExtractor{extractErr: wantErr}
	p, err := New(Config{Extractor: fake})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Process(context.Background(), "doc text")
	var svcErr *extract.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Process() error = %v, want *extract.ServiceError", err)
	}
	if fake.adjudicated {
		t.Fatal("adjudication must not run when an extraction pass fails")
	}
}

func tempPtr(v float64) *float64 { return &v }

func TestProcess_CustomTemperatures(t *testing.T) {
	fake := &fakeExtractor{}
	p, err := New(Config{
		Extractor:             fake,
		FirstPassTemperature:  0.1,
		SecondPassTemperature: tempPtr(0.7),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := p.Process(context.Background(), "doc"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sort.Float64s(fake.temps)
	if fake.temps[0] != 0.1 || fake.temps[1] != 0.7 {
		t.Fatalf("pass temperatures = %v, want [0.1, 0.7]", fake.temps)
	}
}

func TestProcess_ExplicitZeroSecondPassTemperature(t *testing.T) {
	// An explicit 0.0 second pass must be honored, not replaced by the
	// default 0.3.
	fake := &fakeExtractor{}
	p, err := New(Config{
		Extractor:             fake,
		SecondPassTemperature: tempPtr(0.0),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := p.Process(context.Background(), "doc"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(fake.temps) != 2 || fake.temps[0] != 0.0 || fake.temps[1] != 0.0 {
		t.Fatalf("pass temperatures = %v, want [0.0, 0.0]", fake.temps)
	}
}

// TestProcess_EndToEnd runs the full pipeline against a mock LLM client:
// a single loading event from 08:00 to 14:00 must come back as one event
// with a computed six-hour duration and populated confidence.
func TestProcess_EndToEnd(t *testing.T) {
	const documentText = "MV Albatross. Commenced loading 08:00 14 Mar, completed 14:00 14 Mar."

	finalJSON := `{
		"document_details": {"vessel_name": "MV Albatross", "confidence": 0.97},
		"events": [
			{
				"event_id": 1,
				"event_type": "loading",
				"start_date": "2024-03-14",
				"start_time": "08:00",
				"end_date": "2024-03-14",
				"end_time": "14:00",
				"duration_hours": 6.0,
				"confidence": 0.98
			}
		],
		"laytime_notes": {"confidence": 0.9}
	}`

	mock := providers.NewMockClient()
	mock.Handler = func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
		// Extraction passes and the adjudication call all return the same
		// record here; the adjudication prompt is recognizable by its role.
		content := finalJSON
		if strings.Contains(req.Messages[0].Content, "data adjudicator") && req.Temperature != 0.0 {
			return nil, errors.New("adjudication must run at temperature 0.0")
		}
		return &providers.ChatResult{
			Success:    true,
			Provider:   providers.MockClientName,
			Content:    content,
			ParsedJSON: json.RawMessage(content),
		}, nil
	}

	svc, err := extract.New(extract.Config{Client: mock})
	if err != nil {
		t.Fatalf("extract.New() error = %v", err)
	}
	p, err := New(Config{Extractor: svc})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := p.Process(context.Background(), documentText)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if mock.RequestCount() != 3 {
		t.Fatalf("LLM calls = %d, want 3 (two passes + adjudication)", mock.RequestCount())
	}
	if len(rec.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.Events))
	}
	ev := rec.Events[0]
	if ev.StartTime == nil || *ev.StartTime != "08:00" {
		t.Fatalf("start_time = %v, want 08:00", ev.StartTime)
	}
	if ev.EndTime == nil || *ev.EndTime != "14:00" {
		t.Fatalf("end_time = %v, want 14:00", ev.EndTime)
	}
	if ev.DurationHours == nil || *ev.DurationHours != 6.0 {
		t.Fatalf("duration_hours = %v, want 6.0", ev.DurationHours)
	}
	if ev.Confidence == nil {
		t.Fatal("event confidence must be populated")
	}
	if issues := sof.TimingIssues(rec); len(issues) != 0 {
		t.Fatalf("timing issues = %v, want none", issues)
	}
}

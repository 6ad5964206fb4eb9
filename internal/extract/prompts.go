package extract

import (
	"fmt"

	"github.com/portledger/sofextract/internal/providers"
)

// Prompt keys for call recording.
const (
	ExtractPromptKey    = "sof_extract"
	AdjudicatePromptKey = "sof_adjudicate"
)

const extractionSystemPrompt = `You are given a Statement of Facts (SOF) document.
Extract its details into the provided schema.

Guidelines:
- If information is clearly present in the document, do not leave fields blank.
- For every recorded event, ensure both start_time and end_time are populated. If an event represents a single point in time, use that same timestamp for both the start and the end.
- If distinct start and end times are given, calculate the duration_hours.
- Include all relevant notes on weather, delays, tug usage, approvals, and laytime.
- Only leave a field as null if the data is truly missing from the document.
- Add a confidence score (from 0.0 to 1.0) for each extracted value.`

const adjudicationSystemPrompt = `**Role & Goal:**
You are an expert data adjudicator specializing in maritime Statement of Facts (SOF) documents. Your task is to act as the final authority, producing a single, definitive, and highly accurate JSON record by critically analyzing the provided information.

**Inputs:**
1.  **The Document Text:** The original, unaltered source of truth.
2.  **Extraction 1:** A first attempt to structure the data.
3.  **Extraction 2:** A second, independent attempt.

**Core Logic & Rules:**
1.  **The Source is Final:** The Document Text is the absolute ground truth. Every field in your final output must be directly verifiable from this text.
2.  **Resolve Conflicts:** When the extractions disagree, you must re-examine the Document Text to determine the correct value. Do not guess or choose randomly.
3.  **Merge for Completeness:** Create the most complete record possible. If one extraction captured a detail (e.g., a remark or event) that the other missed, include it in your final output, but only after confirming it exists in the source text.
4.  **Determine Final Confidence:** Your confidence score for each field should reflect the evidence.
    - If both extractions agree and are confirmed by the text, confidence should be high (e.g., 0.95-1.0).
    - If you resolved a conflict or found a value only one extraction caught, your confidence should be slightly lower but still high if the text is clear (e.g., 0.85-0.9).
    - If the text itself is ambiguous, reflect that in the score (e.g., 0.7-0.8).

**Output Requirements:**
- **Strict Schema:** The output MUST be a single, valid JSON object that strictly follows the provided schema.
- **No Fabrication:** Do not invent, hallucinate, or infer data that is not explicitly present in the Document Text. If information is absent, the value MUST be null.

Begin your analysis. Compare the two extractions against the source text and generate the final, consolidated JSON object.`

// buildExtractionMessages composes the messages for a single extraction pass.
func buildExtractionMessages(documentText string) []providers.Message {
	return []providers.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: documentText},
	}
}

// buildAdjudicationMessages composes the messages for the adjudication call.
// Both candidate extractions are embedded as indented JSON next to the
// original document text.
func buildAdjudicationMessages(documentText string, candidateA, candidateB []byte) []providers.Message {
	user := fmt.Sprintf(`--- DOCUMENT TEXT ---
%s
--- END DOCUMENT ---

--- EXTRACTION 1 (Initial Pass) ---
%s
--- END EXTRACTION 1 ---

--- EXTRACTION 2 (Second Pass) ---
%s
--- END EXTRACTION 2 ---

**Final Consolidated JSON:**`, documentText, candidateA, candidateB)

	return []providers.Message{
		{Role: "system", Content: adjudicationSystemPrompt},
		{Role: "user", Content: user},
	}
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultModels is the fallback chain, tried in order until one produces a
// valid analysis.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

// Snapshot is the redacted patient view sent to the model. No names, no MRN,
// no contact details.
type Snapshot struct {
	Age               int              `json:"age"`
	Sex               string           `json:"sex"`
	ChronicConditions []string         `json:"chronic_conditions"`
	Vitals            []SnapshotVital  `json:"vitals"`
	Labs              []SnapshotLab    `json:"labs"`
	Medications       []SnapshotMed    `json:"medications"`
}

type SnapshotVital struct {
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	MeasuredAt string  `json:"measured_at"`
}

type SnapshotLab struct {
	TestName       string   `json:"test_name"`
	Value          *float64 `json:"value,omitempty"`
	ResultText     *string  `json:"result_text,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	ReferenceRange *string  `json:"reference_range,omitempty"`
	Status         string   `json:"status"`
}

type SnapshotMed struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
}

// Analyzer generates structured clinical summaries with a model fallback
// chain.
type Analyzer struct {
	caller Caller
	models []string
	logger zerolog.Logger
}

func NewAnalyzer(caller Caller, models []string, logger zerolog.Logger) *Analyzer {
	if len(models) == 0 {
		models = DefaultModels
	}
	return &Analyzer{caller: caller, models: models, logger: logger}
}

const maxSnapshotItems = 10

// BuildPrompt renders the strict-JSON instruction around the snapshot.
func BuildPrompt(snap Snapshot) (string, error) {
	if len(snap.Vitals) > maxSnapshotItems {
		snap.Vitals = snap.Vitals[:maxSnapshotItems]
	}
	if len(snap.Labs) > maxSnapshotItems {
		snap.Labs = snap.Labs[:maxSnapshotItems]
	}
	if snap.ChronicConditions == nil {
		snap.ChronicConditions = []string{}
	}
	if snap.Medications == nil {
		snap.Medications = []SnapshotMed{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a clinical assistant. Based on the provided patient data, return ONLY valid JSON matching the schema below.\n")
	b.WriteString("Do NOT include any additional explanation, commentary, or markdown. The output must be strict JSON.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(`{
  "summary": "short 2-3 sentence clinical summary",
  "findings": ["key finding 1", "key finding 2", "..."],
  "risk": {
    "level": "Low|Medium|High",
    "justification": "one-line justification for the risk level"
  },
  "recommendations": ["actionable recommendation 1", "actionable recommendation 2", "..."]
}`)
	b.WriteString("\n\nPatient data (for context):\n")
	b.Write(data)
	b.WriteString("\n\nReturn the JSON now. Ensure it is parseable.")
	return b.String(), nil
}

// Result pairs a validated analysis with the model that produced it.
type Result struct {
	Analysis  *Analysis `json:"analysis"`
	ModelUsed string    `json:"model_used"`
}

// Analyze walks the model chain until one returns a parseable, valid
// analysis. The error carries the last failure when every model strikes out.
func (a *Analyzer) Analyze(ctx context.Context, snap Snapshot) (*Result, error) {
	prompt, err := BuildPrompt(snap)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, model := range a.models {
		text, err := a.caller.Generate(ctx, model, prompt)
		if err != nil {
			lastErr = err
			a.logger.Warn().Str("model", model).Err(err).Msg("model call failed, trying next")
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = fmt.Errorf("%s returned an empty response", model)
			continue
		}
		analysis, err := parseAnalysis(text)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", model, err)
			a.logger.Warn().Str("model", model).Err(err).Msg("unusable model output, trying next")
			continue
		}
		return &Result{Analysis: analysis, ModelUsed: model}, nil
	}
	return nil, fmt.Errorf("no model produced a valid analysis: %w", lastErr)
}

package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Analysis is the structured clinical summary returned by the model.
type Analysis struct {
	Summary         string   `json:"summary"`
	Findings        []string `json:"findings"`
	Risk            Risk     `json:"risk"`
	Recommendations []string `json:"recommendations"`
}

type Risk struct {
	Level         string `json:"level"`
	Justification string `json:"justification"`
}

var fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*({.*})\\s*```")

// extractJSON pulls a parseable JSON object out of model output. Models asked
// for strict JSON still occasionally wrap it in commentary or a code fence.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if json.Valid([]byte(text)) {
		return text, true
	}
	if first, last := strings.Index(text, "{"), strings.LastIndex(text, "}"); first != -1 && last > first {
		candidate := text[first : last+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil && json.Valid([]byte(m[1])) {
		return m[1], true
	}
	return "", false
}

// parseAnalysis decodes and validates model output. Summary is mandatory;
// everything else gets a sane default.
func parseAnalysis(text string) (*Analysis, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if strings.TrimSpace(a.Summary) == "" {
		return nil, fmt.Errorf("analysis is missing a summary")
	}
	if a.Findings == nil {
		a.Findings = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.Risk.Level == "" {
		a.Risk.Level = "Medium"
	}
	return &a, nil
}

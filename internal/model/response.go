package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// verdictResponse is the JSON object the backend is asked to return
type verdictResponse struct {
	ThreatLevel core.ThreatLevel `json:"threat_level"`
	ThreatType  core.ThreatType  `json:"threat_type"`
	Confidence  *float64         `json:"confidence"`
	Explanation string           `json:"explanation"`
	RedFlags    []string         `json:"red_flags"`
}

// parseVerdict extracts the span between the first '{' and the last '}' of
// the raw backend output and validates it as a verdict
func parseVerdict(raw string) (*core.ThreatVerdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", core.ErrModelResponse)
	}

	var resp verdictResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelResponse, err)
	}

	if !resp.ThreatLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown threat level %q", core.ErrModelResponse, resp.ThreatLevel)
	}
	if !resp.ThreatType.Valid() {
		return nil, fmt.Errorf("%w: unknown threat type %q", core.ErrModelResponse, resp.ThreatType)
	}
	if resp.Confidence == nil || *resp.Confidence < 0 || *resp.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence missing or outside [0, 1]", core.ErrModelResponse)
	}

	redFlags := make([]string, 0, len(resp.RedFlags))
	for _, flag := range resp.RedFlags {
		if flag = strings.TrimSpace(flag); flag != "" {
			redFlags = append(redFlags, flag)
		}
	}

	explanation := strings.TrimSpace(resp.Explanation)
	if explanation == "" {
		explanation = core.Explain(resp.ThreatType, redFlags)
	}

	return &core.ThreatVerdict{
		ThreatLevel:       resp.ThreatLevel,
		ThreatType:        resp.ThreatType,
		Confidence:        *resp.Confidence,
		Explanation:       explanation,
		RedFlags:          redFlags,
		RecommendedAction: core.ActionFor(resp.ThreatLevel),
	}, nil
}

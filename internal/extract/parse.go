package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"dealtrack-engine/internal/domain"
)

// parseDeals turns a completion response into candidate deals. Two explicit
// steps: strip an optional markdown fence, then parse strictly as JSON.
// Valid JSON that is not an array means zero deals; invalid JSON is an
// error the caller records against the source.
func parseDeals(content string) ([]domain.CandidateDeal, error) {
	cleaned := stripFence(strings.TrimSpace(content))

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse completion response: %w", err)
	}
	if _, ok := parsed.([]any); !ok {
		return nil, nil
	}

	var deals []domain.CandidateDeal
	if err := json.Unmarshal([]byte(cleaned), &deals); err != nil {
		return nil, fmt.Errorf("decode deal array: %w", err)
	}
	return deals, nil
}

// stripFence removes a leading/trailing ``` code fence and an optional
// "json" language tag.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

package reason

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ruleproof/ruleproof/internal/model"
)

// ParseResponse decodes the service's JSON verdict. Models routinely wrap
// JSON in markdown fences or preamble text, so the decoder tolerates both.
func ParseResponse(raw string) (*model.ReviewResponse, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	// fall back to the outermost object if there is leading prose
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in response")
		}
		text = text[start : end+1]
	}

	var resp model.ReviewResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("decode review response: %w", err)
	}
	return &resp, nil
}

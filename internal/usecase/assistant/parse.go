package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/keywordlab/internal/domain"
)

// stripFences removes a surrounding markdown code fence, which some models add
// even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseKeywords(text string) ([]string, error) {
	text = stripFences(text)

	var obj struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj.Keywords != nil {
		return obj.Keywords, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}
	return nil, fmt.Errorf("parse keywords: %w", domain.ErrMalformedOutput)
}

func parseClusters(text string) (map[string][]string, error) {
	text = stripFences(text)

	var obj struct {
		Clusters map[string][]string `json:"clusters"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && anyKeywords(obj.Clusters) {
		return obj.Clusters, nil
	}
	var flat map[string][]string
	if err := json.Unmarshal([]byte(text), &flat); err == nil && anyKeywords(flat) {
		return flat, nil
	}
	return nil, fmt.Errorf("parse clusters: %w", domain.ErrMalformedOutput)
}

func anyKeywords(clusters map[string][]string) bool {
	for _, kws := range clusters {
		if len(kws) > 0 {
			return true
		}
	}
	return false
}

func parseDescription(text string) (string, error) {
	text = stripFences(text)

	var obj struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		if d := strings.TrimSpace(obj.Description); d != "" {
			return d, nil
		}
		return "", fmt.Errorf("parse persona: empty description: %w", domain.ErrMalformedOutput)
	}
	// Plain prose is accepted as the description.
	if text != "" && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return text, nil
	}
	return "", fmt.Errorf("parse persona: %w", domain.ErrMalformedOutput)
}

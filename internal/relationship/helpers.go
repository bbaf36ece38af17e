package relationship

import (
	"strings"
	"time"
)

const hourWindow = time.Hour

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func containsToken(content, token string) bool {
	if token == "" || len(content) == 0 {
		return false
	}
	return strings.Contains(content, token)
}

var causalMarkers = []string{"because", "therefore", "as a result", "led to", "caused by"}

func hasCausalMarker(content string) bool {
	lower := strings.ToLower(content)
	for _, m := range causalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var supersedesMarkers = []string{"no longer", "supersedes", "replaces", "deprecated in favor of", "instead of"}

func hasSupersedesMarker(content string) bool {
	lower := strings.ToLower(content)
	for _, m := range supersedesMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var negationMarkers = []string{"not ", "no ", "never ", "isn't", "doesn't", "won't", "can't", "cannot"}

func hasNegation(content string) bool {
	lower := strings.ToLower(content)
	for _, m := range negationMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

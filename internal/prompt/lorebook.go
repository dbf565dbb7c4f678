package prompt

import (
	"strings"

	"github.com/aria-companion/project-aria/internal/types"
)

// ActivateLorebook scans the last NDepth turns for entry keys and returns
// the contents of the entries that matched, in entry order. Matching is a
// case-insensitive substring test against the joined scan window; the
// first matching key includes the entry and no entry is returned twice.
// NDepth of zero scans nothing, so nothing activates.
func ActivateLorebook(lorebook types.Lorebook, turns []types.ChatTurn) []string {
	if lorebook.NDepth <= 0 || len(lorebook.Entries) == 0 {
		return nil
	}

	start := len(turns) - lorebook.NDepth
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(turns)-start)
	for _, turn := range turns[start:] {
		parts = append(parts, turn.Content)
	}
	window := strings.ToLower(strings.Join(parts, " "))

	var activated []string
	for _, entry := range lorebook.Entries {
		for _, key := range entry.Key {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if strings.Contains(window, strings.ToLower(key)) {
				activated = append(activated, entry.Content)
				break
			}
		}
	}
	return activated
}

// Package memory implements the retrieval side of smart memory: splitting
// chat history into same-speaker segments, embedding them, and ranking them
// against the current user message.
package memory

import (
	"strings"

	"github.com/aria-companion/project-aria/internal/types"
)

// MinSegmentWords is the whitespace-split word count a segment must reach
// to take part in ranking. Shorter runs are discarded.
const MinSegmentWords = 10

// HistoryWindow computes how many of the most recent turns are considered
// for segmentation: 30% of the history, clamped to [20, 200], widened by
// 100 for very long histories. Never exceeds total.
func HistoryWindow(total int) int {
	window := int(float64(total) * 0.3)
	if window < 20 {
		window = 20
	}
	if window > 200 {
		window = 200
	}
	if total > 500 {
		window += 100
	}
	if window > total {
		window = total
	}
	return window
}

// SegmentTurns groups consecutive turns of the same role into segments.
// Turns whose trimmed content is empty are skipped entirely. A run that
// ends below MinSegmentWords is dropped; its turns do not carry over into
// the next run.
func SegmentTurns(turns []types.ChatTurn) []types.Segment {
	var segments []types.Segment
	var run []types.ChatTurn

	flush := func() {
		if len(run) == 0 {
			return
		}
		text := joinContents(run)
		if len(strings.Fields(text)) >= MinSegmentWords {
			segments = append(segments, types.Segment{Turns: run, Text: text})
		}
		run = nil
	}

	for _, turn := range turns {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		if len(run) > 0 && run[len(run)-1].Role != turn.Role {
			flush()
		}
		run = append(run, turn)
	}
	flush()
	return segments
}

func joinContents(turns []types.ChatTurn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		parts = append(parts, turn.Content)
	}
	return strings.Join(parts, " ")
}

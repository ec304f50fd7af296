package library

import (
	"fmt"
	"strings"
)

// DefaultWordsPerMinute is the reading speed used for read time estimates.
const DefaultWordsPerMinute = 200

// CountWords gives the word count used for read time. Whitespace-separated
// fields are close enough for prose.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimateReadTime formats the reading time of words at wpm, rounded up and
// never below one minute.
func EstimateReadTime(words, wpm int) string {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

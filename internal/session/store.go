// Package session holds the per-session mutable state of the study
// assistant: the history/stats store, the pomodoro timer, the in-session
// flashcard review deck and the registry tying them to session IDs. Nothing
// in this package persists beyond the process.
package session

import (
	"strings"
	"sync"
	"time"

	"study-assist/internal/models"
)

// snippetLimit bounds the topic snippet derived from the source text.
const snippetLimit = 110

// Store tracks what happened in one session: an append-only history log and
// per-kind action counters. History and counters move together — a reader
// never observes one updated without the other.
type Store struct {
	mu      sync.Mutex
	limit   int
	history []models.HistoryEntry
	stats   models.SessionStats
}

// NewStore builds an empty store. limit bounds the history log; 0 means
// unbounded. Evicting an old entry never decrements a counter.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// RecordResult appends one history entry and bumps the matching counter plus
// the total, as one atomic update.
func (s *Store) RecordResult(kind models.ActionKind, sourceText, resultText, tag string) {
	snip := snippet(sourceText, snippetLimit)
	if tag == "" {
		tag = snip
	}
	entry := models.HistoryEntry{
		Kind:         kind,
		TopicSnippet: snip,
		Tag:          tag,
		ResultText:   resultText,
		Timestamp:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	if s.limit > 0 && len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}

	switch kind {
	case models.ActionSummarize:
		s.stats.Summaries++
	case models.ActionExplain:
		s.stats.Explanations++
	case models.ActionQuiz:
		s.stats.Quizzes++
	case models.ActionFlashcard:
		s.stats.Flashcards++
	}
	s.stats.Total++
}

// ClearAll wipes history and zeroes every counter atomically.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.stats = models.SessionStats{}
}

// RecentHistory returns up to n entries, most recent first.
func (s *Store) RecentHistory(n int) []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.history) == 0 {
		return []models.HistoryEntry{}
	}
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]models.HistoryEntry, 0, n)
	for i := len(s.history) - 1; i >= len(s.history)-n; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() models.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// snippet collapses whitespace and truncates to limit runes, marking the cut
// with an ellipsis.
func snippet(input string, limit int) string {
	collapsed := strings.Join(strings.Fields(strings.TrimSpace(input)), " ")
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	if limit > 3 {
		return string(runes[:limit-3]) + "..."
	}
	return string(runes[:limit])
}

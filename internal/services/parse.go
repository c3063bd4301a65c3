package services

import (
	"strings"

	"study-assist/internal/models"
)

// Markers the quiz and flashcard templates ask the model to emit. The
// model's reply is untrusted free text, so both parsers are total: any
// input yields a (possibly empty) result, never an error.
const (
	answerMarker = "Answer:"
	frontMarker  = "FRONT:"
	backMarker   = "BACK:"
)

// ParseQuiz splits a completion into question/answer pairs. The text is cut
// into blocks on blank lines; a block containing the Answer: marker is split
// at its last occurrence, so explanatory text that itself mentions an answer
// earlier in the block stays with the question. Blocks without the marker
// are narrative filler: they stay in the raw text the caller displays, and
// are deliberately not promoted to quiz items.
func ParseQuiz(raw string) []models.QuizItem {
	items := []models.QuizItem{}
	for _, block := range splitBlocks(raw) {
		idx := strings.LastIndex(block, answerMarker)
		if idx < 0 {
			continue
		}
		items = append(items, models.QuizItem{
			Question: strings.TrimSpace(block[:idx]),
			Answer:   strings.TrimSpace(block[idx+len(answerMarker):]),
		})
	}
	return items
}

// ParseFlashcards scans a completion line by line. A FRONT: line opens a new
// card, flushing any open one; a BACK: line sets the open card's back, last
// write winning if the model repeats it. A trailing card with only a front
// is kept with a nil back rather than dropped. If no card was ever opened
// the result is empty and the caller falls back to the raw text.
func ParseFlashcards(raw string) []models.FlashCard {
	cards := []models.FlashCard{}

	var open *models.FlashCard
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, frontMarker):
			if open != nil {
				cards = append(cards, *open)
			}
			open = &models.FlashCard{
				Front: strings.TrimSpace(strings.TrimPrefix(trimmed, frontMarker)),
			}
		case strings.HasPrefix(trimmed, backMarker):
			if open == nil {
				// BACK before any FRONT opens a card with an empty front.
				open = &models.FlashCard{}
			}
			back := strings.TrimSpace(strings.TrimPrefix(trimmed, backMarker))
			open.Back = &back
		}
	}
	if open != nil {
		cards = append(cards, *open)
	}
	return cards
}

// splitBlocks cuts text on blank-line boundaries, preserving block order and
// skipping runs of consecutive blank lines.
func splitBlocks(raw string) []string {
	var blocks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		block := strings.TrimSpace(strings.Join(current, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

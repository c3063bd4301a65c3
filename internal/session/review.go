package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"study-assist/internal/models"
)

var (
	// ErrNoCards indicates the deck is empty or every card sits far in the future.
	ErrNoCards = errors.New("no cards to review")
)

// ReviewCard is one flashcard with its in-memory scheduling state.
type ReviewCard struct {
	Index  int       `json:"index"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
	Due    time.Time `json:"due"`
	Reps   int       `json:"reps"`
	Lapses int       `json:"lapses"`

	state fsrs.Card
}

// ReviewDeck lets the user drill the flashcards produced by the most recent
// flashcard action, scheduled with FSRS. All state lives in memory for the
// session lifetime; the next flashcard action replaces the deck wholesale.
type ReviewDeck struct {
	mu     sync.Mutex
	params fsrs.Parameters
	cards  []*ReviewCard
	// queue holds indices of cards rated "again"; they preempt due order
	// until rated something better.
	queue []int
}

func NewReviewDeck() *ReviewDeck {
	return &ReviewDeck{params: fsrs.DefaultParam()}
}

// Load replaces the deck contents. Cards missing a back are kept; the user
// sees an empty answer side rather than losing the cue.
func (d *ReviewDeck) Load(cards []models.FlashCard, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cards = make([]*ReviewCard, 0, len(cards))
	d.queue = nil
	for i, c := range cards {
		back := ""
		if c.Back != nil {
			back = *c.Back
		}
		d.cards = append(d.cards, &ReviewCard{
			Index: i,
			Front: c.Front,
			Back:  back,
			Due:   now,
			state: fsrs.Card{Due: now, State: fsrs.New},
		})
	}
}

// Size returns the number of cards in the deck.
func (d *ReviewDeck) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// Next returns the card to show: the front of the again-queue if any,
// otherwise the card with the earliest due time.
func (d *ReviewDeck) Next(now time.Time) (*ReviewCard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) > 0 {
		return cloneCard(d.cards[d.queue[0]]), nil
	}

	var best *ReviewCard
	for _, c := range d.cards {
		if d.queued(c.Index) {
			continue
		}
		if best == nil || c.Due.Before(best.Due) {
			best = c
		}
	}
	if best == nil {
		return nil, ErrNoCards
	}
	return cloneCard(best), nil
}

// Answer applies one rating to a card. "Again" sends the card to the back of
// the working queue; any other rating removes it from the queue.
func (d *ReviewDeck) Answer(index int, rating fsrs.Rating, now time.Time) (*ReviewCard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.cards) {
		return nil, fmt.Errorf("unknown card %d", index)
	}
	card := d.cards[index]

	scheduling := d.params.Repeat(card.state, now)
	info, ok := scheduling[rating]
	if !ok {
		return nil, fmt.Errorf("rating %d not supported", rating)
	}
	card.state = info.Card
	card.Due = info.Card.Due
	card.Reps = int(info.Card.Reps)
	card.Lapses = int(info.Card.Lapses)

	d.dequeue(index)
	if rating == fsrs.Again {
		d.queue = append(d.queue, index)
	}
	return cloneCard(card), nil
}

func (d *ReviewDeck) queued(index int) bool {
	for _, q := range d.queue {
		if q == index {
			return true
		}
	}
	return false
}

func (d *ReviewDeck) dequeue(index int) {
	for i, q := range d.queue {
		if q == index {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return
		}
	}
}

func cloneCard(c *ReviewCard) *ReviewCard {
	out := *c
	return &out
}

// ParseRating maps the wire form of a review rating onto FSRS ratings.
func ParseRating(raw string) (fsrs.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "again":
		return fsrs.Again, nil
	case "hard":
		return fsrs.Hard, nil
	case "good":
		return fsrs.Good, nil
	case "easy":
		return fsrs.Easy, nil
	default:
		return 0, fmt.Errorf("unknown rating %q", raw)
	}
}

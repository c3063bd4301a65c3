package models

import (
	"strings"
	"time"
)

// ActionKind identifies one of the four supported study operations.
type ActionKind string

const (
	ActionSummarize ActionKind = "summarize"
	ActionExplain   ActionKind = "explain"
	ActionQuiz      ActionKind = "quiz"
	ActionFlashcard ActionKind = "flashcard"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionSummarize, ActionExplain, ActionQuiz, ActionFlashcard:
		return true
	}
	return false
}

// Label returns the human-readable form used in history panels and exports.
func (k ActionKind) Label() string {
	switch k {
	case ActionSummarize:
		return "Summary"
	case ActionExplain:
		return "Explanation"
	case ActionQuiz:
		return "Quiz"
	case ActionFlashcard:
		return "Flashcards"
	}
	return string(k)
}

// Difficulty steers the reading level requested from the model.
type Difficulty string

const (
	DifficultyAuto       Difficulty = "auto"
	DifficultyBeginner   Difficulty = "beginner"
	DifficultyHighSchool Difficulty = "high_school"
	DifficultyUniversity Difficulty = "university"
	DifficultyAdvanced   Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyAuto, DifficultyBeginner, DifficultyHighSchool, DifficultyUniversity, DifficultyAdvanced:
		return true
	}
	return false
}

// Style steers how the answer is presented.
type Style string

const (
	StyleDefault       Style = "default"
	StyleShortDirect   Style = "short_direct"
	StyleStepByStep    Style = "step_by_step"
	StyleWithExamples  Style = "with_examples"
	StyleWithAnalogies Style = "with_analogies"
)

func (s Style) Valid() bool {
	switch s {
	case StyleDefault, StyleShortDirect, StyleStepByStep, StyleWithExamples, StyleWithAnalogies:
		return true
	}
	return false
}

const (
	MinMaxTokens     = 128
	MaxMaxTokens     = 1024
	DefaultMaxTokens = 250

	DefaultTemperature = 0.4
)

// ActionRequest describes one study action as submitted by the UI.
type ActionRequest struct {
	Kind        ActionKind `json:"kind"`
	SourceText  string     `json:"sourceText"`
	TopicLabel  string     `json:"topicLabel,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Style       Style      `json:"style,omitempty"`
	MaxTokens   int        `json:"maxTokens,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
}

// Normalized returns a copy with defaults applied and tuning values clamped
// into their documented ranges.
func (r ActionRequest) Normalized() ActionRequest {
	out := r
	if out.Difficulty == "" {
		out.Difficulty = DifficultyAuto
	}
	if out.Style == "" {
		out.Style = StyleDefault
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.MaxTokens < MinMaxTokens {
		out.MaxTokens = MinMaxTokens
	}
	if out.MaxTokens > MaxMaxTokens {
		out.MaxTokens = MaxMaxTokens
	}
	if out.Temperature == 0 {
		out.Temperature = DefaultTemperature
	}
	if out.Temperature < 0 {
		out.Temperature = 0
	}
	if out.Temperature > 1 {
		out.Temperature = 1
	}
	return out
}

// Blank reports whether the request carries no usable input text.
func (r ActionRequest) Blank() bool {
	return strings.TrimSpace(r.SourceText) == ""
}

// QuizItem is one parsed question/answer pair from a quiz completion.
type QuizItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashCard is one parsed front/back pair from a flashcard completion.
// Back is nil when the model emitted a FRONT line with no following BACK.
type FlashCard struct {
	Front string  `json:"front"`
	Back  *string `json:"back"`
}

// HistoryEntry records one completed action. Entries are immutable once
// appended; the store only ever clears them in bulk.
type HistoryEntry struct {
	Kind         ActionKind `json:"kind"`
	TopicSnippet string     `json:"topicSnippet"`
	Tag          string     `json:"tag"`
	ResultText   string     `json:"resultText"`
	Timestamp    time.Time  `json:"timestamp"`
}

// SessionStats counts completed actions per kind. Total always equals the
// sum of the four kind counters.
type SessionStats struct {
	Summaries    int `json:"summaries"`
	Explanations int `json:"explanations"`
	Quizzes      int `json:"quizzes"`
	Flashcards   int `json:"flashcards"`
	Total        int `json:"total"`
}

// CompletionErrorKind classifies a failed completion call.
type CompletionErrorKind string

const (
	ErrMissingCredential CompletionErrorKind = "missing_credential"
	ErrProvider          CompletionErrorKind = "provider_error"
	ErrTransport         CompletionErrorKind = "transport_error"
)

// CompletionError is the closed failure taxonomy of the completion boundary.
type CompletionError struct {
	Kind    CompletionErrorKind `json:"kind"`
	Message string              `json:"message"`
}

func (e *CompletionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ExtractionError reports an uploaded file that could not be turned into text.
type ExtractionError struct {
	Ext     string `json:"ext"`
	Message string `json:"message"`
}

func (e *ExtractionError) Error() string {
	return "extract " + e.Ext + ": " + e.Message
}

// OutcomeStatus tags the result of one action invocation.
type OutcomeStatus string

const (
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSucceeded OutcomeStatus = "succeeded"
)

// ViewKind selects how the UI should render a successful result.
type ViewKind string

const (
	ViewPlain      ViewKind = "plain"
	ViewQuiz       ViewKind = "quiz"
	ViewFlashcards ViewKind = "flashcards"
)

// StructuredView is the render-ready shape of a successful completion.
// Text always carries the raw result so the UI can fall back to it when the
// structured slices are empty.
type StructuredView struct {
	Kind  ViewKind    `json:"kind"`
	Text  string      `json:"text"`
	Quiz  []QuizItem  `json:"quiz,omitempty"`
	Cards []FlashCard `json:"cards,omitempty"`
}

// ActionOutcome is the tagged result of Assistant.HandleAction.
type ActionOutcome struct {
	Status OutcomeStatus    `json:"status"`
	Reason string           `json:"reason,omitempty"`
	Error  *CompletionError `json:"error,omitempty"`
	View   *StructuredView  `json:"view,omitempty"`
}

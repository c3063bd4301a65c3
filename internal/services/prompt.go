package services

import (
	"strings"

	"study-assist/internal/models"
)

// Instruction templates per action kind. The quiz and flashcard templates
// pin the reply to the line markers ParseQuiz and ParseFlashcards look for.
const (
	summarizeTemplate = "Summarize the following text in 5–7 sentences. Keep key terms:"

	explainTemplate = "Explain the following topic clearly. " +
		"Use plain language. " +
		"If there are formulas or jargon, define them first."

	quizTemplate = "Create a short multiple-choice quiz (3–5 questions) about the following material. " +
		"For each question list the options, then a line beginning with \"Answer:\" that names the " +
		"correct option with a one-sentence justification. Separate questions with a blank line."

	flashcardTemplate = "Create study flashcards for the following material. " +
		"Write each card as exactly two lines: one beginning with \"FRONT:\" holding the cue, " +
		"then one beginning with \"BACK:\" holding the answer. " +
		"Strictly alternate FRONT: and BACK: lines with no other commentary."
)

var difficultyClauses = map[models.Difficulty]string{
	models.DifficultyBeginner:   "Pitch it at an absolute beginner.",
	models.DifficultyHighSchool: "Pitch it at a high-school student.",
	models.DifficultyUniversity: "Pitch it at a university student.",
	models.DifficultyAdvanced:   "Pitch it at an advanced reader; do not oversimplify.",
}

var styleClauses = map[models.Style]string{
	models.StyleShortDirect:   "Keep it short and direct.",
	models.StyleStepByStep:    "Work through it step by step.",
	models.StyleWithExamples:  "Include concrete examples.",
	models.StyleWithAnalogies: "Use helpful analogies.",
}

// BuildPrompt composes the user-turn prompt for one action. It is pure: the
// same request always yields the same string, and the source text is appended
// verbatim after a blank line so the model sees it unmodified.
func BuildPrompt(req models.ActionRequest) string {
	var b strings.Builder

	switch req.Kind {
	case models.ActionSummarize:
		b.WriteString(summarizeTemplate)
	case models.ActionExplain:
		b.WriteString(explainTemplate)
	case models.ActionQuiz:
		b.WriteString(quizTemplate)
	case models.ActionFlashcard:
		b.WriteString(flashcardTemplate)
	default:
		b.WriteString(summarizeTemplate)
	}

	if clause, ok := difficultyClauses[req.Difficulty]; ok {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	if clause, ok := styleClauses[req.Style]; ok {
		b.WriteString(" ")
		b.WriteString(clause)
	}

	b.WriteString("\n\n")
	b.WriteString(req.SourceText)
	return b.String()
}

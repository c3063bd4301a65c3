package services

import (
	"context"
	"errors"
	"strings"

	"study-assist/internal/models"
	"study-assist/pkg/logger"
)

// Recorder receives the single state mutation a successful action performs.
// session.Store satisfies it.
type Recorder interface {
	RecordResult(kind models.ActionKind, sourceText, resultText, tag string)
}

// Assistant orchestrates one study action: validate, build the prompt, call
// the completion provider, parse the reply, record the result. All failure
// paths return a typed outcome and leave the recorder untouched.
type Assistant struct {
	client CompletionClient
	store  Recorder
}

func NewAssistant(client CompletionClient, store Recorder) *Assistant {
	return &Assistant{client: client, store: store}
}

// HandleAction runs one action to completion. The recorder is mutated
// exactly once, and only on the succeeded path.
func (a *Assistant) HandleAction(ctx context.Context, req models.ActionRequest) models.ActionOutcome {
	if !req.Kind.Valid() {
		return models.ActionOutcome{
			Status: models.OutcomeRejected,
			Reason: "unknown action kind",
		}
	}
	if req.Blank() {
		return models.ActionOutcome{
			Status: models.OutcomeRejected,
			Reason: "please type or paste something first",
		}
	}

	req = req.Normalized()
	prompt := BuildPrompt(req)

	text, err := a.client.Complete(ctx, prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		cerr := asCompletionError(err)
		logger.WithFields(map[string]any{
			"kind":  req.Kind,
			"error": cerr.Kind,
		}).Warnf("completion failed: %s", cerr.Message)
		return models.ActionOutcome{Status: models.OutcomeFailed, Error: cerr}
	}

	view := buildView(req.Kind, text)
	a.store.RecordResult(req.Kind, req.SourceText, text, strings.TrimSpace(req.TopicLabel))

	return models.ActionOutcome{Status: models.OutcomeSucceeded, View: &view}
}

// buildView parses the completion according to the action kind. The raw text
// always rides along so empty parses can still be displayed.
func buildView(kind models.ActionKind, text string) models.StructuredView {
	switch kind {
	case models.ActionQuiz:
		return models.StructuredView{
			Kind: models.ViewQuiz,
			Text: text,
			Quiz: ParseQuiz(text),
		}
	case models.ActionFlashcard:
		return models.StructuredView{
			Kind:  models.ViewFlashcards,
			Text:  text,
			Cards: ParseFlashcards(text),
		}
	default:
		return models.StructuredView{Kind: models.ViewPlain, Text: text}
	}
}

func asCompletionError(err error) *models.CompletionError {
	var cerr *models.CompletionError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &models.CompletionError{Kind: models.ErrTransport, Message: err.Error()}
}

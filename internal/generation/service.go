package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/kpiotrowski/flashforge/internal/ai"
)

const (
	MinInputLength = 1000
	MaxInputLength = 10000

	MaxFrontLength = 500
	MaxBackLength  = 1000

	sourceTypeText = "text"
)

const systemPrompt = "You are a flashcard generator. Given a passage of study text, " +
	"produce clear question/answer flashcards. Use simple language, keep each card " +
	"self-contained and focus on the key concepts of the text. Respond with a JSON " +
	"object of the form {\"flashcards\":[{\"front\":\"question\",\"back\":\"answer\"}]}."

// Command is one generation request. Immutable once constructed.
type Command struct {
	InputText string
	Model     string // optional override of the configured default
	UserID    *uint64
}

// Proposal is a candidate flashcard awaiting user accept/edit/decline.
type Proposal struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type Result struct {
	Proposals    []Proposal      `json:"proposals"`
	Raw          *ai.RawResponse `json:"rawResponse,omitempty"`
	GenerationID string          `json:"generation_id,omitempty"`
	SourceID     string          `json:"source_id,omitempty"`
}

// Gateway is the outbound completion transport. Satisfied by *ai.Client;
// tests substitute a fake.
type Gateway interface {
	SendMessage(ctx context.Context, messages []ai.Message, opts ai.SendOptions) (*ai.ChatResult, error)
}

type Service struct {
	repo         *Repo
	gateway      Gateway
	apiKey       string
	defaultModel string
}

func NewService(repo *Repo, gateway Gateway, apiKey, defaultModel string) *Service {
	return &Service{repo: repo, gateway: gateway, apiKey: apiKey, defaultModel: defaultModel}
}

func flashcardsResponseFormat() *ai.ResponseFormat {
	return &ai.ResponseFormat{
		Type: "json_schema",
		JSONSchema: ai.JSONSchema{
			Name:   "flashcards",
			Strict: true,
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"flashcards": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"front": map[string]any{"type": "string"},
								"back":  map[string]any{"type": "string"},
							},
							"required":             []string{"front", "back"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"flashcards"},
				"additionalProperties": false,
			},
		},
	}
}

// ValidateInput enforces the input length bounds before anything else runs.
func ValidateInput(text string) *Error {
	if n := len(text); n < MinInputLength || n > MaxInputLength {
		return newError(CodeValidationError,
			fmt.Sprintf("input_text must be between %d and %d characters, got %d", MinInputLength, MaxInputLength, n),
			http.StatusBadRequest, "")
	}
	return nil
}

// Generate turns a validated text input into flashcard proposals. On success
// exactly one Generation row is created, linked to a new or reused Source row.
// Every failure path appends one error-log entry (best effort) and returns a
// single classified *Error.
func (s *Service) Generate(ctx context.Context, cmd Command) (*Result, error) {
	if err := ValidateInput(cmd.InputText); err != nil {
		s.logError(ctx, err, nil, cmd.UserID)
		return nil, err
	}

	if strings.TrimSpace(s.apiKey) == "" {
		err := newError(CodeAPIError, "OpenRouter API key is not configured", http.StatusInternalServerError, "")
		s.logError(ctx, err, nil, cmd.UserID)
		return nil, err
	}

	model := strings.TrimSpace(cmd.Model)
	if model == "" {
		model = s.defaultModel
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: cmd.InputText},
	}

	res, err := s.gateway.SendMessage(ctx, messages, ai.SendOptions{
		Model:          model,
		ResponseFormat: flashcardsResponseFormat(),
	})
	if err != nil {
		gerr := WrapError(err)
		s.logError(ctx, gerr, nil, cmd.UserID)
		return nil, gerr
	}

	proposals, perr := parseProposals(res.Message)
	if perr != nil {
		s.logError(ctx, perr, nil, cmd.UserID)
		return nil, perr
	}
	if verr := validateProposals(proposals); verr != nil {
		s.logError(ctx, verr, nil, cmd.UserID)
		return nil, verr
	}

	src, err := s.repo.EnsureSource(ctx, &Source{
		TextHash:   Fingerprint(cmd.InputText),
		Length:     len(cmd.InputText),
		Model:      model,
		SourceType: sourceTypeText,
		UserID:     cmd.UserID,
	})
	if err != nil {
		gerr := newError(CodeAPIError, "failed to record source", http.StatusInternalServerError, err.Error())
		s.logError(ctx, gerr, nil, cmd.UserID)
		return nil, gerr
	}

	gen := &Generation{
		SourceID:       src.ID,
		GeneratedCount: len(proposals),
		UserID:         cmd.UserID,
	}
	if err := s.repo.CreateGeneration(ctx, gen); err != nil {
		gerr := newError(CodeAPIError, "failed to record generation", http.StatusInternalServerError, err.Error())
		s.logError(ctx, gerr, &src.ID, cmd.UserID)
		return nil, gerr
	}

	return &Result{
		Proposals:    proposals,
		Raw:          res.Raw,
		GenerationID: gen.ID,
		SourceID:     src.ID,
	}, nil
}

// parseProposals extracts and parses the structured payload. The content may
// be a {"flashcards":[...]} object or a bare array, possibly wrapped in prose.
func parseProposals(content string) ([]Proposal, *Error) {
	payload := ai.ExtractJSON(content)

	var wrapped struct {
		Flashcards *[]Proposal `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapped); err == nil && wrapped.Flashcards != nil {
		return *wrapped.Flashcards, nil
	}

	var bare []Proposal
	if err := json.Unmarshal([]byte(payload), &bare); err == nil {
		return bare, nil
	}

	details := fmt.Sprintf("parse target: %s; raw content: %s", payload, content)
	return nil, newError(CodeParsingError, "response is missing the flashcards array", http.StatusBadRequest, details)
}

// validateProposals applies the per-proposal constraints; the first violation
// fails the whole batch.
func validateProposals(proposals []Proposal) *Error {
	if len(proposals) == 0 {
		return newError(CodeValidationError, "model returned no flashcards", http.StatusBadRequest, "")
	}
	for i, p := range proposals {
		switch {
		case p.Front == "":
			return newError(CodeValidationError, fmt.Sprintf("proposal %d has an empty front", i), http.StatusBadRequest, "")
		case p.Back == "":
			return newError(CodeValidationError, fmt.Sprintf("proposal %d has an empty back", i), http.StatusBadRequest, "")
		case len(p.Front) > MaxFrontLength:
			return newError(CodeValidationError, fmt.Sprintf("proposal %d front exceeds %d characters", i, MaxFrontLength), http.StatusBadRequest, "")
		case len(p.Back) > MaxBackLength:
			return newError(CodeValidationError, fmt.Sprintf("proposal %d back exceeds %d characters", i, MaxBackLength), http.StatusBadRequest, "")
		}
	}
	return nil
}

// logError appends to the error log, fire and forget: a failed write is
// logged and discarded so error reporting never replaces the original error.
func (s *Service) logError(ctx context.Context, gerr *Error, sourceID *string, userID *uint64) {
	entry := &ErrorLog{
		SourceID:     sourceID,
		ErrorCode:    string(gerr.Code),
		ErrorMessage: gerr.Message,
		UserID:       userID,
	}
	if err := s.repo.AppendErrorLog(ctx, entry); err != nil {
		log.Printf("generation: error log write failed: %v", err)
	}
}

// RunJob executes a queued async job through the same pipeline the
// synchronous endpoint uses, then records the outcome on the job row.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	if err := s.repo.MarkJobRunning(ctx, jobID); err != nil {
		return err
	}
	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	res, err := s.Generate(ctx, Command{
		InputText: j.InputText,
		Model:     j.Model,
		UserID:    &j.UserID,
	})
	if err != nil {
		gerr := WrapError(err)
		if markErr := s.repo.MarkJobFailed(ctx, jobID, string(gerr.Code), gerr.Message); markErr != nil {
			return markErr
		}
		return gerr
	}

	encoded, err := json.Marshal(res.Proposals)
	if err != nil {
		return err
	}
	return s.repo.MarkJobSucceeded(ctx, jobID, res.GenerationID, string(encoded))
}

// DecodeProposals reads a proposal list persisted on a succeeded job.
// Rows are written by RunJob, so a decode failure means corruption; it
// answers nil rather than propagating.
func DecodeProposals(encoded string) []Proposal {
	var proposals []Proposal
	if err := json.Unmarshal([]byte(encoded), &proposals); err != nil {
		log.Printf("generation: stored proposals decode failed: %v", err)
		return nil
	}
	return proposals
}

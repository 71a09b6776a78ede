package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"raterocket/internal/model"
)

// Intent labels returned by ClassifyIntent.
const (
	IntentOutOfScope         = "out_of_scope"
	IntentSpecificLender     = "specific_lender"
	IntentFilteredLenderList = "filtered_lender_list"
	IntentGeneralLoan        = "general_loan_question"
)

// DocumentTypeIrrelevant is the relevance classifier's reject label.
const DocumentTypeIrrelevant = "irrelevant_document"

type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type RelevanceResult struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

type GeneratedReply struct {
	Response  string `json:"response"`
	ChatTitle string `json:"chat_title"`
}

type ExtractionResult struct {
	Fields    *model.LoanFields `json:"extracted_info"`
	Message   string            `json:"message"`
	ChatTitle string            `json:"chat_title"`
	Consent   bool              `json:"consent"`
	IsUpdated bool              `json:"is_updated"`
}

type RefinementResult struct {
	Fields  *model.LoanFields `json:"extracted_info"`
	Message string            `json:"message"`
	Consent bool              `json:"consent"`
}

// ClassifyIntent labels the user message against the conversation so
// far.
func (c *Client) ClassifyIntent(ctx context.Context, message string, history []model.ChatTurn) (*IntentResult, error) {
	prompt := fmt.Sprintf(`You classify messages for a loan assistant.
Conversation so far:
%s

Latest user message: %q

Answer with JSON only: {"intent": one of ["general_loan_question","specific_lender","filtered_lender_list","out_of_scope"], "confidence": 0..1, "reason": short string}`,
		renderHistory(history), message)

	var result IntentResult
	if err := c.completeJSON(ctx, systemAndUser(classifierSystemPrompt, prompt), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractQuery derives a knowledge-base search query from the turn.
func (c *Client) ExtractQuery(ctx context.Context, message string, history []model.ChatTurn) (string, error) {
	prompt := fmt.Sprintf(`Conversation so far:
%s

Latest user message: %q

Produce a short keyword search query for the lender knowledge base. Answer with the query text only.`,
		renderHistory(history), message)

	answer, err := c.complete(ctx, systemAndUser(classifierSystemPrompt, prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// GenerateResponse produces the assistant reply for a chat turn.
// Returns (nil, nil) when the model yields nothing usable; callers
// treat that as a recoverable no-op.
func (c *Client) GenerateResponse(ctx context.Context, intent, historyText, contextText string) (*GeneratedReply, error) {
	prompt := fmt.Sprintf(`Intent: %s
Conversation:
%s

Knowledge base context (may be empty):
%s

Answer with JSON only: {"response": assistant reply, "chat_title": short conversation title}`,
		intent, historyText, contextText)

	var reply GeneratedReply
	if err := c.completeJSON(ctx, systemAndUser(assistantSystemPrompt, prompt), &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Response) == "" {
		return nil, nil
	}
	return &reply, nil
}

// CheckRelevance decides whether extracted text looks like a loan
// document at all.
func (c *Client) CheckRelevance(ctx context.Context, text string) (*RelevanceResult, error) {
	prompt := fmt.Sprintf(`Document text:
%s

Classify the document. Answer with JSON only: {"document_type": one of ["loan_application","loan_estimate","closing_disclosure","promissory_note","irrelevant_document"], "confidence": 0..1}`,
		clip(text, 6000))

	var result RelevanceResult
	if err := c.completeJSON(ctx, systemAndUser(extractorSystemPrompt, prompt), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractFields pulls structured loan fields from document text.
func (c *Client) ExtractFields(ctx context.Context, text string) (*ExtractionResult, error) {
	prompt := fmt.Sprintf(`Document text:
%s

Extract loan fields. Answer with JSON only:
{"extracted_info": {"borrower_name","loan_amount","interest_rate","loan_term","property_address","property_type","lender_name","loan_type","loan_purpose"} with null for anything absent,
 "message": human readable summary for the user,
 "chat_title": short conversation title,
 "consent": true when the document grants permission to store the data,
 "is_updated": true when this looks like an update to an earlier filing}`,
		clip(text, 12000))

	var result ExtractionResult
	if err := c.completeJSON(ctx, systemAndUser(extractorSystemPrompt, prompt), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractFieldsIncremental merges a follow-up message into the
// previously extracted fields. The merge policy is owned here; the
// returned field set is the new authoritative snapshot.
func (c *Client) ExtractFieldsIncremental(ctx context.Context, message string, history []model.ChatTurn, previous *model.LoanFields) (*RefinementResult, error) {
	previousJSON := "{}"
	if previous != nil {
		previousJSON = mustJSON(previous)
	}
	prompt := fmt.Sprintf(`Conversation so far:
%s

Previously extracted fields:
%s

Latest user message: %q

Merge the message into the fields, keeping previous values the message does not change. Answer with JSON only:
{"extracted_info": the full merged field set, "message": assistant reply, "consent": true when the user permits storing the data}`,
		renderHistory(history), previousJSON, message)

	var result RefinementResult
	if err := c.completeJSON(ctx, systemAndUser(extractorSystemPrompt, prompt), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

const (
	classifierSystemPrompt = "You are a precise classifier for a loan assistant. Always answer with the exact format requested."
	assistantSystemPrompt  = "You are a helpful assistant for lending and loan options. Always answer with the exact format requested."
	extractorSystemPrompt  = "You extract structured data from loan documents. Always answer with valid JSON and nothing else."
)

func systemAndUser(system, user string) []ChatMessage {
	return []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// RenderHistory flattens a conversation into "role: content" lines.
func RenderHistory(history []model.ChatTurn) string {
	return renderHistory(history)
}

func renderHistory(history []model.ChatTurn) string {
	if len(history) == 0 {
		return "(empty)"
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(lines, "\n")
}

func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

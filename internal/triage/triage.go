// Package triage turns normalized grievance content into a structured
// assessment by prompting the generative model and reconciling its reply.
package triage

import (
	"context"
	"fmt"
	"strings"

	"redtape/internal/models"
)

// Generator is the slice of the model client the triage pipeline uses.
// *ai.Service satisfies it; tests substitute a fake.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt, imagePath string) (string, error)
}

// Service builds prompts, calls the model, and parses its replies.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

const classifyPrompt = `You are an AI that classifies grievance-related images.
Possible Categories:
1. infrastructure hazard / road damage
2. flood / water logging
3. water leakage / pipe burst
4. electricity outage / fallen poles
5. sanitation / garbage / drainage issues

Output only the best fitting category from the list above.`

// The grievance text is spliced between the triple-quote markers verbatim,
// with no escaping. A complaint containing the same marker can truncate or
// redirect the prompt; kept as-is until the upstream API grows a structured
// field for untrusted text.
const analyzeTemplate = `You are an AI assistant for government grievance management.
Analyze the citizen complaint below and return a structured JSON **exactly** in the following format:

{
  "risk_level": "low/medium/high",
  "urgency_score": 1-10,
  "category": "short descriptive category of the issue like public safety / health issue / water supply disruption / electricity outage / sanitation problem / other short category",
  "recommended_action": "clear, immediate, and strong action focusing on protecting citizens and restoring essential services",
  "escalation_needed": true/false
}

Rules:
1. Use numeric values (1-10) for urgency_score, where 10 is most urgent.
2. risk_level should be a short description: "low risk", "medium risk", or "high risk".
3. category should describe the problem clearly in a few words (e.g., "water supply disruption").
4. recommended_action should be actionable and concise.
5. escalation_needed is true if the issue requires immediate attention from higher authorities, otherwise false.
6. Output **only JSON** - no explanations, no extra text.

%s

Complaint:
"""%s"""`

const categoryNoteTemplate = `NOTE: The image was classified as **%s**.
Consider this as the complaint category even if no text is available.`

// ClassifyImage asks the model to pick one of the five fixed categories for
// an image that carried no legible text. The trimmed reply is returned
// verbatim as the label; it is deliberately not checked against the taxonomy.
func (s *Service) ClassifyImage(ctx context.Context, path string) (string, error) {
	label, err := s.gen.GenerateWithImage(ctx, classifyPrompt, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}

// Analyze builds the canonical assessment prompt and returns the model's raw
// text reply. For KindImage, input is an image path sent alongside the
// prompt; for KindText it is the grievance text itself, appended once more
// after the template the way the upstream contract has it.
func (s *Service) Analyze(ctx context.Context, input string, kind models.InputKind, categoryOverride string) (string, error) {
	note := ""
	if categoryOverride != "" {
		note = fmt.Sprintf(categoryNoteTemplate, categoryOverride)
	}

	if kind == models.KindImage {
		prompt := fmt.Sprintf(analyzeTemplate, note, models.NoTextSentinel)
		return s.gen.GenerateWithImage(ctx, prompt, input)
	}
	prompt := fmt.Sprintf(analyzeTemplate, note, input)
	return s.gen.GenerateText(ctx, prompt+fmt.Sprintf("\nGrievance: %s", input))
}

// Assess runs the analyze-then-parse half of the pipeline for resolved
// content: one model call, then sanitization, strict JSON parsing, and schema
// validation of the reply.
func (s *Service) Assess(ctx context.Context, content models.ExtractedContent) (any, error) {
	raw, err := s.Analyze(ctx, content.Text, models.KindText, content.CategoryOverride)
	if err != nil {
		return nil, err
	}
	return ParseAssessment(raw)
}

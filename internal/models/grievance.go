package models

// InputKind tells the analyzer how the grievance content reached us.

type InputKind string

const (
	KindText  InputKind = "text"
	KindImage InputKind = "image"
)

// NoTextSentinel replaces the grievance text when an image carried no legible
// text and the category had to come from the image classifier instead.
const NoTextSentinel = "No text provided"

// ExtractedContent is the normalized result of shape resolution. When
// CategoryOverride is set, Text always holds NoTextSentinel; the override and
// genuinely extracted text are never both meaningful at once.
type ExtractedContent struct {
	Text             string
	CategoryOverride string
}

// Assessment is the structured verdict the model is asked to produce.
type Assessment struct {
	RiskLevel         string `json:"risk_level"`
	UrgencyScore      int    `json:"urgency_score"`
	Category          string `json:"category"`
	RecommendedAction string `json:"recommended_action"`
	EscalationNeeded  bool   `json:"escalation_needed"`
}

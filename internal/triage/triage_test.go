package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"redtape/internal/models"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	lastImage  string
	textCalls  int
	imageCalls int
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.textCalls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

func (f *fakeGenerator) GenerateWithImage(_ context.Context, prompt, imagePath string) (string, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	f.lastImage = imagePath
	return f.reply, f.err
}

func TestAnalyzeEmbedsComplaintVerbatim(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := NewService(gen)

	complaint := "No water supply for 3 days in sector 5"
	if _, err := svc.Analyze(context.Background(), complaint, models.KindText, ""); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if gen.textCalls != 1 || gen.imageCalls != 0 {
		t.Fatalf("expected one text call, got text=%d image=%d", gen.textCalls, gen.imageCalls)
	}
	if !strings.Contains(gen.lastPrompt, `"""`+complaint+`"""`) {
		t.Fatalf("prompt should embed the complaint between triple quotes:\n%s", gen.lastPrompt)
	}
	if strings.Contains(gen.lastPrompt, "NOTE: The image was classified") {
		t.Fatal("prompt should not carry a category note without an override")
	}
}

func TestAnalyzeWithCategoryOverride(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := NewService(gen)

	_, err := svc.Analyze(context.Background(), models.NoTextSentinel, models.KindText, "flood / water logging")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "classified as **flood / water logging**") {
		t.Fatalf("prompt missing category note:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, models.NoTextSentinel) {
		t.Fatalf("prompt should carry the sentinel text:\n%s", gen.lastPrompt)
	}
}

func TestAnalyzeImageKindSendsImage(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := NewService(gen)

	_, err := svc.Analyze(context.Background(), "/tmp/pothole.jpg", models.KindImage, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if gen.imageCalls != 1 || gen.textCalls != 0 {
		t.Fatalf("expected one image call, got text=%d image=%d", gen.textCalls, gen.imageCalls)
	}
	if gen.lastImage != "/tmp/pothole.jpg" {
		t.Fatalf("unexpected image path %q", gen.lastImage)
	}
}

func TestClassifyImageTrimsLabel(t *testing.T) {
	gen := &fakeGenerator{reply: "  sanitation / garbage / drainage issues \n"}
	svc := NewService(gen)

	label, err := svc.ClassifyImage(context.Background(), "/tmp/garbage.png")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != "sanitation / garbage / drainage issues" {
		t.Fatalf("unexpected label %q", label)
	}
	if !strings.Contains(gen.lastPrompt, "electricity outage / fallen poles") {
		t.Fatalf("classify prompt should enumerate the taxonomy:\n%s", gen.lastPrompt)
	}
}

func TestAssessPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	svc := NewService(&fakeGenerator{err: wantErr})

	_, err := svc.Assess(context.Background(), models.ExtractedContent{Text: "power cut"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error to propagate, got %v", err)
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Fatal("transport failure must not be reported as a parse failure")
	}
}

func TestAssessParsesReply(t *testing.T) {
	svc := NewService(&fakeGenerator{reply: "```json\n" + validAssessment + "\n```"})

	got, err := svc.Assess(context.Background(), models.ExtractedContent{Text: "no water"})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", got)
	}
	if m["risk_level"] != "high risk" {
		t.Fatalf("unexpected risk_level %#v", m["risk_level"])
	}
}

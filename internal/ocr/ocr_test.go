package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFakeTesseract(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake tesseract: %v", err)
	}
	return path
}

func TestRecognizeJoinsFragments(t *testing.T) {
	bin := writeFakeTesseract(t, `printf 'Garbage   not\ncollected\n'`)
	engine := NewEngine(bin, []string{"eng", "hin"})

	text, err := engine.Recognize(context.Background(), "ignored.png")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "Garbage not collected" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestRecognizePassesLanguageList(t *testing.T) {
	// args: <path> stdout -l <langs>; echo the language argument back
	bin := writeFakeTesseract(t, `echo "$4"`)
	engine := NewEngine(bin, []string{"eng", "hin"})

	text, err := engine.Recognize(context.Background(), "ignored.png")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "eng+hin" {
		t.Fatalf("expected language list eng+hin, got %q", text)
	}
}

func TestRecognizeEmptyOutputIsNotAnError(t *testing.T) {
	bin := writeFakeTesseract(t, `exit 0`)
	engine := NewEngine(bin, nil)

	text, err := engine.Recognize(context.Background(), "blank.png")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestRecognizeSurfacesStderr(t *testing.T) {
	bin := writeFakeTesseract(t, `echo "cannot open image" >&2; exit 1`)
	engine := NewEngine(bin, nil)

	_, err := engine.Recognize(context.Background(), "missing.png")
	if err == nil {
		t.Fatal("expected error from failing binary")
	}
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine("", nil)
	if engine.binary != "tesseract" || engine.langs != "eng" {
		t.Fatalf("unexpected defaults: %q %q", engine.binary, engine.langs)
	}
}

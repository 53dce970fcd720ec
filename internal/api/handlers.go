package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"redtape/internal/extract"
	"redtape/internal/models"
	"redtape/internal/triage"
	"redtape/internal/worker"
)

const maxUploadBytes = 10 << 20 // 10 MB

// TriageService is the model-facing half of the pipeline.
type TriageService interface {
	Assess(ctx context.Context, content models.ExtractedContent) (any, error)
	ClassifyImage(ctx context.Context, path string) (string, error)
}

// Recognizer extracts text from an image on disk.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Handler wires the grievance route to extraction, OCR, and triage. Blocking
// model/OCR work runs on the dispatcher's worker pool.
type Handler struct {
	triage   TriageService
	ocr      Recognizer
	dispatch *worker.Dispatcher
}

// NewHandler constructs a Handler instance.
func NewHandler(triageSvc TriageService, ocrEngine Recognizer, dispatch *worker.Dispatcher) *Handler {
	return &Handler{
		triage:   triageSvc,
		ocr:      ocrEngine,
		dispatch: dispatch,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Only POST allowed"})
	})
	router.POST("/grievance", h.analyzeGrievance)
}

// grievanceRequest is the JSON body shape: direct text, or a base64 file
// with its declared type.
type grievanceRequest struct {
	Text     string `json:"text"`
	File     string `json:"file"`
	FileType string `json:"file_type"`
}

// resolvedInput is the outcome of shape resolution: either direct grievance
// text, or file bytes plus a declared extension still needing extraction.
type resolvedInput struct {
	text     string
	fileData []byte
	fileExt  string
}

type shapeError struct {
	status  int
	message string
}

type outcome struct {
	status int
	body   any
}

// errNoInput marks requests where a shape was resolved but no grievance text
// came out of it.
var errNoInput = errors.New("no text or file provided")

func (h *Handler) analyzeGrievance(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	body, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	in, shapeErr := resolveShape(c.GetHeader("Content-Type"), body)
	if shapeErr != nil {
		c.JSON(shapeErr.status, gin.H{"error": shapeErr.message})
		return
	}

	// Extraction, OCR, and the model calls all block on external services;
	// they run on the pool so saturation turns into a busy signal instead of
	// unbounded goroutines.
	ctx := c.Request.Context()
	resCh := make(chan outcome, 1)
	submitErr := h.dispatch.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- outcome{http.StatusInternalServerError, gin.H{"error": fmt.Sprint(r)}}
			}
		}()
		resCh <- h.process(ctx, in)
	})
	if submitErr != nil {
		if errors.Is(submitErr, worker.ErrDispatcherBusy) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": submitErr.Error()})
		return
	}

	out := <-resCh
	c.JSON(out.status, out.body)
}

// resolveShape inspects the request body for the four mutually exclusive
// input shapes in fixed priority order: JSON text, JSON base64 file,
// multipart file part, raw body text. The first satisfied shape wins.
func resolveShape(contentType string, body []byte) (resolvedInput, *shapeError) {
	mediaType, params, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json":
		var req grievanceRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return resolvedInput{}, &shapeError{http.StatusBadRequest, "Invalid JSON"}
		}
		if strings.TrimSpace(req.Text) != "" {
			return resolvedInput{text: req.Text}, nil
		}
		if req.File != "" && req.FileType != "" {
			data, err := base64.StdEncoding.DecodeString(req.File)
			if err != nil {
				return resolvedInput{}, &shapeError{http.StatusBadRequest, "invalid base64 file payload"}
			}
			return resolvedInput{fileData: data, fileExt: strings.ToLower(strings.TrimSpace(req.FileType))}, nil
		}
	case "multipart/form-data":
		return resolveMultipart(body, params["boundary"])
	}

	// Shape 4: raw non-empty request body decoded as UTF-8 text.
	if raw := strings.TrimSpace(string(body)); raw != "" && utf8.ValidString(raw) {
		return resolvedInput{text: raw}, nil
	}
	return resolvedInput{}, &shapeError{http.StatusBadRequest, "No text or file provided"}
}

// resolveMultipart looks for a "file" part. A malformed form is a decode
// error; a well-formed form without a file part carries no grievance, so it
// never falls through to the raw body (the form encoding itself is not text).
func resolveMultipart(body []byte, boundary string) (resolvedInput, *shapeError) {
	if boundary == "" {
		return resolvedInput{}, &shapeError{http.StatusBadRequest, "invalid multipart form"}
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxUploadBytes)
	if err != nil {
		return resolvedInput{}, &shapeError{http.StatusBadRequest, "invalid multipart form"}
	}
	defer form.RemoveAll()

	files := form.File["file"]
	if len(files) == 0 {
		return resolvedInput{}, &shapeError{http.StatusBadRequest, "No text or file provided"}
	}
	f, err := files[0].Open()
	if err != nil {
		return resolvedInput{}, &shapeError{http.StatusBadRequest, "invalid multipart form"}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return resolvedInput{}, &shapeError{http.StatusBadRequest, "invalid multipart form"}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(files[0].Filename)), ".")
	return resolvedInput{fileData: data, fileExt: ext}, nil
}

func (h *Handler) process(ctx context.Context, in resolvedInput) outcome {
	content, err := h.resolveContent(ctx, in)
	if err != nil {
		if errors.Is(err, errNoInput) {
			return outcome{http.StatusBadRequest, gin.H{"error": "No text or file provided"}}
		}
		return outcome{http.StatusInternalServerError, gin.H{"error": err.Error()}}
	}

	result, err := h.triage.Assess(ctx, content)
	if err != nil {
		var parseErr *triage.ParseError
		var validationErr *triage.ValidationError
		switch {
		case errors.As(err, &parseErr):
			// Parse failure still completes the request so the caller can
			// inspect the literal model output.
			return outcome{http.StatusOK, gin.H{
				"error":        "Failed to parse JSON",
				"raw_response": parseErr.Raw,
				"exception":    parseErr.Cause.Error(),
			}}
		case errors.As(err, &validationErr):
			return outcome{http.StatusOK, gin.H{
				"error":        "Assessment failed validation",
				"raw_response": validationErr.Raw,
				"exception":    validationErr.Cause.Error(),
			}}
		default:
			return outcome{http.StatusInternalServerError, gin.H{"error": err.Error()}}
		}
	}
	return outcome{http.StatusOK, result}
}

// resolveContent turns a resolved input into grievance text. File inputs are
// written to a scoped temp file that is removed on every path, extraction
// failures included.
func (h *Handler) resolveContent(ctx context.Context, in resolvedInput) (models.ExtractedContent, error) {
	if in.fileData == nil {
		return models.ExtractedContent{Text: in.text}, nil
	}

	tmp, err := models.NewScopedFile(in.fileData, in.fileExt)
	if err != nil {
		return models.ExtractedContent{}, err
	}
	defer tmp.Remove()

	switch in.fileExt {
	case "pdf", "docx", "doc", "txt":
		text, err := extract.FromFile(tmp.Path(), in.fileExt)
		if err != nil {
			return models.ExtractedContent{}, err
		}
		if text == "" {
			return models.ExtractedContent{}, errNoInput
		}
		return models.ExtractedContent{Text: text}, nil
	case "jpg", "jpeg", "png":
		text, err := h.ocr.Recognize(ctx, tmp.Path())
		if err != nil {
			return models.ExtractedContent{}, err
		}
		if text == "" {
			label, err := h.triage.ClassifyImage(ctx, tmp.Path())
			if err != nil {
				return models.ExtractedContent{}, err
			}
			return models.ExtractedContent{Text: models.NoTextSentinel, CategoryOverride: label}, nil
		}
		return models.ExtractedContent{Text: text}, nil
	default:
		return models.ExtractedContent{}, errNoInput
	}
}

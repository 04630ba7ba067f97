package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/agrisage-labs/agrisage-go/models"
	"github.com/agrisage-labs/agrisage-go/utils"
	"go.uber.org/zap"
)

// MaxUploadBytes caps analyze and chat image uploads at 16 MiB.
const MaxUploadBytes = 16 << 20

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

type DiseaseDetector interface {
	DetectDisease(ctx context.Context, imageData []byte, mimeType string) (*models.Detection, error)
	Configured() bool
}

type ImageClassifier interface {
	ClassifyImage(ctx context.Context, imageData []byte) (*models.Detection, error)
	Configured() bool
}

type TreatmentProvider interface {
	Get(ctx context.Context, disease string) *models.Treatment
}

type ResultTranslator interface {
	TranslateResult(ctx context.Context, res *models.AnalysisResult, targetLang string)
}

// AnalyzeHandler implements POST /analyze: multipart image + language in,
// disease/confidence/treatment out. Detection runs through the provider
// chain Gemini, then the hosted classifier, then the color heuristic.
type AnalyzeHandler struct {
	Detector   DiseaseDetector
	Classifier ImageClassifier
	Treatments TreatmentProvider
	Translator ResultTranslator
	Logger     *zap.Logger
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Image exceeds the 16 MB limit or the request is malformed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No image selected")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(ext)
	}

	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	h.Logger.Info("Analyzing image",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(imageData)),
		zap.String("language", language))

	detection := h.detect(r.Context(), imageData, mimeType)
	if detection.Disease == "Unknown" {
		writeError(w, http.StatusBadRequest, "Could not identify the disease. Please try with a clearer image.")
		return
	}

	result := &models.AnalysisResult{
		Disease:    detection.Disease,
		Confidence: detection.Confidence,
		Treatment:  h.Treatments.Get(r.Context(), detection.Disease),
		Language:   language,
	}

	if language != "en" {
		h.Translator.TranslateResult(r.Context(), result, language)
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AnalyzeHandler) detect(ctx context.Context, imageData []byte, mimeType string) *models.Detection {
	if h.Detector != nil && h.Detector.Configured() {
		detection, err := h.Detector.DetectDisease(ctx, imageData, mimeType)
		if err == nil {
			return detection
		}
		h.Logger.Warn("Primary detection failed", zap.Error(err))
	}

	if h.Classifier != nil && h.Classifier.Configured() {
		detection, err := h.Classifier.ClassifyImage(ctx, imageData)
		if err == nil {
			return detection
		}
		h.Logger.Warn("Classifier detection failed", zap.Error(err))
	}

	h.Logger.Warn("All detection providers failed, using heuristic")
	return utils.HeuristicDetect(imageData)
}

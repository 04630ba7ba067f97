package client

import (
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MaxImageBytes caps uploads to what the server accepts.
const MaxImageBytes = 16 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = fmt.Errorf("image exceeds %d MB limit", MaxImageBytes>>20)
	ErrNoImageSelected  = errors.New("no image selected")
)

// SelectedImage is the image staged for analysis.
type SelectedImage struct {
	Name string
	Type string
	Data []byte
}

// SelectImage stages an image for analysis after validating its media type
// and size. A new selection replaces the previous one and clears any result
// from an earlier analysis.
func (a *App) SelectImage(name, mediaType string, data []byte) error {
	if !allowedImageTypes[mediaType] {
		a.logger.Warn("Rejected image selection", zap.String("type", mediaType))
		return ErrUnsupportedImage
	}
	if len(data) > MaxImageBytes {
		a.logger.Warn("Rejected oversized image", zap.Int("bytes", len(data)))
		return ErrImageTooLarge
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = &SelectedImage{Name: name, Type: mediaType, Data: data}
	a.result = nil
	a.audioURL = ""
	return nil
}

// RemoveImage clears the staged image and any result derived from it.
func (a *App) RemoveImage() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = nil
	a.result = nil
	a.audioURL = ""
}

// SelectedImage returns the currently staged image, or nil.
func (a *App) SelectedImage() *SelectedImage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// CanAnalyze reports whether the analyze action is available: an image is
// staged and no analysis is already running.
func (a *App) CanAnalyze() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected != nil && !a.analyzing
}

// PreviewDataURL renders the staged image as a data URL for preview display.
// Empty when nothing is selected.
func (a *App) PreviewDataURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.selected == nil {
		return ""
	}
	return "data:" + a.selected.Type + ";base64," + base64.StdEncoding.EncodeToString(a.selected.Data)
}

package utils

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

// HeuristicDetect is the last-resort detector when no AI provider answers.
// It decodes the image and guesses from the dominant color channel, the way
// a quick field triage would: green reads healthy, red/brown reads fungal,
// yellow reads deficiency.
func HeuristicDetect(data []byte) *models.Detection {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		zap.L().Warn("Heuristic detection could not decode image", zap.Error(err))
		return &models.Detection{
			Disease:    "Unknown",
			Confidence: 50,
			Severity:   "Unknown",
			Provider:   "Image Analysis",
		}
	}

	avgR, avgG, avgB := averageColor(img)

	switch {
	case avgG > avgR && avgG > avgB:
		return &models.Detection{
			Disease:    "Healthy Plant",
			Confidence: 70,
			Symptoms:   []string{"Good green color", "No visible spots"},
			Severity:   "None",
			Provider:   "Image Analysis",
		}
	case avgR > avgG:
		return &models.Detection{
			Disease:    "Possible Fungal Disease",
			Confidence: 60,
			Pathogen:   "Unknown fungus",
			Symptoms:   []string{"Discoloration", "Possible spots"},
			Severity:   "Medium",
			Provider:   "Image Analysis",
		}
	default:
		return &models.Detection{
			Disease:    "Nutrient Deficiency or Disease",
			Confidence: 65,
			Symptoms:   []string{"Yellowing", "Possible chlorosis"},
			Severity:   "Low",
			Provider:   "Image Analysis",
		}
	}
}

// averageColor samples the image on a coarse grid; exact averages are not
// worth a full pixel walk on large uploads.
func averageColor(img image.Image) (r, g, b float64) {
	bounds := img.Bounds()
	stepX := bounds.Dx() / 64
	if stepX < 1 {
		stepX = 1
	}
	stepY := bounds.Dy() / 64
	if stepY < 1 {
		stepY = 1
	}

	var sumR, sumG, sumB, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			sumR += float64(pr >> 8)
			sumG += float64(pg >> 8)
			sumB += float64(pb >> 8)
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return sumR / n, sumG / n, sumB / n
}

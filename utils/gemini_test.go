package utils

import (
	"testing"
)

func TestParseDetection(t *testing.T) {
	text := `CROP: Tomato
DISEASE: Early Blight
CONFIDENCE: 88
PATHOGEN: Alternaria solani
SYMPTOMS: brown concentric rings, yellowing lower leaves
SEVERITY: Medium`

	result := ParseDetection(text)

	if result.Crop != "Tomato" {
		t.Errorf("crop = %q", result.Crop)
	}
	if result.Disease != "Early Blight" {
		t.Errorf("disease = %q", result.Disease)
	}
	if result.Confidence != 88 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if result.Pathogen != "Alternaria solani" {
		t.Errorf("pathogen = %q", result.Pathogen)
	}
	if len(result.Symptoms) != 2 || result.Symptoms[0] != "brown concentric rings" {
		t.Errorf("symptoms = %v", result.Symptoms)
	}
	if result.Severity != "Medium" {
		t.Errorf("severity = %q", result.Severity)
	}
}

func TestParseDetectionHealthyNormalization(t *testing.T) {
	for _, verdict := range []string{"Healthy", "healthy", "No disease", "None"} {
		result := ParseDetection("DISEASE: " + verdict + "\nCONFIDENCE: 60")
		if result.Disease != "Healthy Plant" {
			t.Errorf("verdict %q: disease = %q", verdict, result.Disease)
		}
		if result.Confidence != 95 {
			t.Errorf("verdict %q: confidence = %v", verdict, result.Confidence)
		}
		if result.Severity != "None" {
			t.Errorf("verdict %q: severity = %q", verdict, result.Severity)
		}
	}
}

func TestParseDetectionDefaults(t *testing.T) {
	result := ParseDetection("some free-form text without tags")
	if result.Disease != "Unknown" {
		t.Errorf("disease = %q", result.Disease)
	}
	if result.Confidence != 75 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if result.Severity != "Unknown" {
		t.Errorf("severity = %q", result.Severity)
	}
}

func TestParseDetectionClampsConfidence(t *testing.T) {
	result := ParseDetection("DISEASE: Rust\nCONFIDENCE: 250")
	if result.Confidence != 100 {
		t.Errorf("confidence = %v, want clamped to 100", result.Confidence)
	}
}

func TestParseDetectionIgnoresNonePathogen(t *testing.T) {
	result := ParseDetection("DISEASE: Rust\nPATHOGEN: None")
	if result.Pathogen != "" {
		t.Errorf("pathogen = %q, want empty", result.Pathogen)
	}
}

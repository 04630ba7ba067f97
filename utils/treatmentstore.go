package utils

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agrisage-labs/agrisage-go/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TreatmentStore keeps per-disease treatment recommendations in Redis under
// treatment:<slug> keys. When Redis is unavailable or a disease is unknown,
// it falls back to rule-based recommendations so an analysis never comes
// back without treatment guidance.
type TreatmentStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewTreatmentStore(rdb *redis.Client) *TreatmentStore {
	return &TreatmentStore{
		rdb:    rdb,
		logger: zap.L().With(zap.String("component", "treatment_store")),
	}
}

var seedTreatments = map[string]models.Treatment{
	"Apple Scab": {
		Organic:    []string{"Apply neem oil spray", "Remove infected leaves", "Ensure good air circulation"},
		Chemical:   []string{"Use fungicides containing captan or myclobutanil"},
		Prevention: []string{"Plant resistant varieties", "Prune for air circulation", "Clean fallen leaves"},
	},
	"Tomato Early Blight": {
		Organic:    []string{"Apply copper-based organic fungicide", "Mulch to prevent soil splash"},
		Chemical:   []string{"Use chlorothalonil or mancozeb fungicides"},
		Prevention: []string{"Rotate crops", "Water at soil level", "Remove infected plants"},
	},
	"Potato Late Blight": {
		Organic:    []string{"Use copper sulfate spray", "Remove infected plants immediately"},
		Chemical:   []string{"Apply metalaxyl or chlorothalonil fungicides"},
		Prevention: []string{"Plant certified disease-free seeds", "Ensure good drainage"},
	},
	"Corn Common Rust": {
		Organic:    []string{"Apply sulfur dust", "Remove infected leaves"},
		Chemical:   []string{"Use propiconazole or azoxystrobin fungicides"},
		Prevention: []string{"Plant resistant hybrids", "Avoid overhead irrigation"},
	},
	"Grape Black Rot": {
		Organic:    []string{"Prune infected parts", "Apply Bordeaux mixture"},
		Chemical:   []string{"Use myclobutanil or tebuconazole fungicides"},
		Prevention: []string{"Remove mummified fruits", "Ensure good air flow"},
	},
}

// Seed writes the built-in treatment data. Called once at startup; existing
// keys are overwritten so data fixes ship with deploys.
func (s *TreatmentStore) Seed(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	for disease, treatment := range seedTreatments {
		data, err := json.Marshal(treatment)
		if err != nil {
			return err
		}
		if err := s.rdb.Set(ctx, treatmentKey(disease), data, 0).Err(); err != nil {
			return err
		}
	}
	s.logger.Info("Treatment data seeded", zap.Int("diseases", len(seedTreatments)))
	return nil
}

// Get returns the stored treatment for the disease, or rule-based
// recommendations when the store has nothing for it.
func (s *TreatmentStore) Get(ctx context.Context, disease string) *models.Treatment {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, treatmentKey(disease)).Result()
		if err == nil {
			var treatment models.Treatment
			if jsonErr := json.Unmarshal([]byte(data), &treatment); jsonErr == nil {
				return &treatment
			}
			s.logger.Warn("Malformed treatment record", zap.String("disease", disease))
		} else if err != redis.Nil {
			s.logger.Error("Redis lookup failed", zap.Error(err))
		}
	}

	return RecommendTreatment(disease)
}

func treatmentKey(disease string) string {
	return "treatment:" + strings.ReplaceAll(strings.ToLower(disease), " ", "_")
}

// RecommendTreatment derives category recommendations from the disease name.
// The rules mirror the recommendations an agronomist would give for the
// broad disease families; unknown names get the generic set.
func RecommendTreatment(disease string) *models.Treatment {
	lower := strings.ToLower(disease)

	if strings.Contains(lower, "healthy") {
		return &models.Treatment{
			Organic: []string{
				"Continue regular watering schedule",
				"Apply organic compost monthly",
				"Monitor for any changes",
			},
			Chemical: []string{
				"No chemical treatment needed",
			},
			Prevention: []string{
				"Regular inspection for early detection",
				"Maintain proper plant spacing",
				"Use disease-resistant varieties",
			},
		}
	}

	treatment := &models.Treatment{
		Prevention: []string{
			"Use disease-resistant varieties",
			"Practice crop rotation",
			"Maintain proper plant spacing",
			"Ensure good drainage",
			"Regular field sanitation",
		},
	}

	switch {
	case strings.Contains(lower, "blight"):
		treatment.Organic = []string{
			"Remove all infected leaves immediately",
			"Apply neem oil spray (5ml/L water)",
			"Use copper-based organic fungicide",
		}
		treatment.Chemical = []string{
			"Apply Mancozeb or Chlorothalonil fungicide",
			"Use systemic fungicide for severe cases",
		}
	case strings.Contains(lower, "mildew"):
		treatment.Organic = []string{
			"Spray with milk solution (40% milk, 60% water)",
			"Apply sulfur-based organic fungicide",
			"Neem oil application every 7 days",
		}
		treatment.Chemical = []string{
			"Apply trifloxystrobin or myclobutanil",
			"Use preventive fungicide program",
		}
	case strings.Contains(lower, "spot"), strings.Contains(lower, "bacterial"):
		treatment.Organic = []string{
			"Copper hydroxide spray",
			"Remove infected plant debris",
			"Use bacterial antagonists (Bacillus subtilis)",
		}
		treatment.Chemical = []string{
			"Copper-based bactericides",
			"Apply protective sprays before rain",
		}
	case strings.Contains(lower, "virus"), strings.Contains(lower, "curl"):
		treatment.Organic = []string{
			"Remove and destroy infected plants",
			"Control insect vectors (whiteflies, aphids)",
			"Use reflective mulches",
		}
		treatment.Chemical = []string{
			"No cure - focus on vector control",
			"Insecticides for whitefly/aphid control",
		}
	case strings.Contains(lower, "rust"):
		treatment.Organic = []string{
			"Remove infected leaves promptly",
			"Apply sulfur dust or spray",
			"Neem oil application",
		}
		treatment.Chemical = []string{
			"Apply propiconazole or tebuconazole",
			"Use preventive fungicide schedule",
		}
	default:
		treatment.Organic = []string{
			"Remove affected plant parts",
			"Apply neem oil (5ml/L) every 5-7 days",
			"Improve plant nutrition with compost",
		}
		treatment.Chemical = []string{
			"Identify specific pathogen for targeted treatment",
			"Consult local agricultural extension",
		}
	}

	return treatment
}

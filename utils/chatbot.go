package utils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"go.uber.org/zap"
)

const maxHistoryTurns = 10

const chatSystemPrompt = `You are AgriSage, an expert AI farming assistant with deep knowledge in:

1. Crop Diseases: identification, symptoms, treatment (organic & chemical), prevention
2. Fertilizers: NPK ratios, organic options, micronutrients, application timing
3. Pest Management: identification, IPM strategies, biological control
4. Irrigation: methods, scheduling, water conservation
5. Crop Management: planting, spacing, pruning, harvesting
6. Soil Health: testing, amendments, pH management

Guidelines:
- Provide specific, actionable advice with measurements and timings
- Always suggest both organic and chemical options
- Include cost-effective solutions for small farmers
- Mention safety precautions for chemical use
- Be encouraging and supportive`

// Chatbot answers farming questions, optionally grounded on an uploaded
// image. Conversation history is kept per session id and capped; sessions
// die with the process, which matches the page-load lifetime of the ids
// clients mint.
type Chatbot struct {
	gemini    *GeminiClient
	hf        *HuggingFaceClient
	knowledge *KnowledgeBase
	logger    *zap.Logger

	mu      sync.Mutex
	history map[string][]models.ChatTurn
}

func NewChatbot(gemini *GeminiClient, hf *HuggingFaceClient, knowledge *KnowledgeBase) *Chatbot {
	return &Chatbot{
		gemini:    gemini,
		hf:        hf,
		knowledge: knowledge,
		logger:    zap.L().With(zap.String("component", "chatbot")),
		history:   make(map[string][]models.ChatTurn),
	}
}

// Process handles one chat exchange and returns the reply with follow-up
// suggestions. It never fails the exchange outright: provider errors degrade
// to knowledge-base answers.
func (b *Chatbot) Process(ctx context.Context, sessionID, message, language string, image []byte, imageType string) *models.ChatReply {
	b.appendTurn(sessionID, models.ChatTurn{
		Role:      "user",
		Content:   message,
		HasImage:  len(image) > 0,
		Timestamp: time.Now(),
	})

	var reply *models.ChatReply
	if len(image) > 0 {
		reply = b.processWithImage(ctx, message, language, image, imageType)
	} else {
		reply = b.processText(ctx, sessionID, message, language)
	}

	b.appendTurn(sessionID, models.ChatTurn{
		Role:      "assistant",
		Content:   reply.Response,
		Timestamp: time.Now(),
	})

	return reply
}

// ClearSession drops the conversation history for a session id.
func (b *Chatbot) ClearSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.history, sessionID)
}

func (b *Chatbot) appendTurn(sessionID string, turn models.ChatTurn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns := append(b.history[sessionID], turn)
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	b.history[sessionID] = turns
}

func (b *Chatbot) recentTurns(sessionID string, n int) []models.ChatTurn {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns := b.history[sessionID]
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]models.ChatTurn, len(turns))
	copy(out, turns)
	return out
}

func (b *Chatbot) processText(ctx context.Context, sessionID, message, language string) *models.ChatReply {
	kbContext := b.knowledge.Context(ctx, message)

	if b.gemini.Configured() {
		var prompt strings.Builder
		prompt.WriteString(chatSystemPrompt)
		prompt.WriteString("\n\n")

		// Skip the current user turn, already appended by Process.
		recent := b.recentTurns(sessionID, 5)
		if len(recent) > 0 {
			recent = recent[:len(recent)-1]
		}
		for _, turn := range recent {
			role := "User"
			if turn.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&prompt, "%s: %s\n", role, turn.Content)
		}

		fmt.Fprintf(&prompt, "User: %s\n", message)

		if len(kbContext) > 0 {
			prompt.WriteString("\nRelevant Information:\n")
			for _, snippet := range kbContext {
				prompt.WriteString("- " + snippet + "\n")
			}
		}

		appendLanguageInstruction(&prompt, language)
		prompt.WriteString("\nProvide a detailed, practical response with specific steps and measurements.\nAssistant: ")

		response, err := b.gemini.GenerateText(ctx, prompt.String())
		if err == nil {
			return &models.ChatReply{
				Response:    response,
				Suggestions: smartSuggestions(message, response),
			}
		}
		b.logger.Error("Gemini chat generation failed, using fallback", zap.Error(err))
	}

	return b.fallbackReply(message, kbContext)
}

const defaultChatImagePrompt = "What can you tell me about this plant?"

func (b *Chatbot) processWithImage(ctx context.Context, message, language string, image []byte, imageType string) *models.ChatReply {
	if strings.TrimSpace(message) == "" {
		message = defaultChatImagePrompt
	}

	var detection *models.Detection
	if b.hf.Configured() {
		d, err := b.hf.ClassifyImage(ctx, image)
		if err != nil {
			b.logger.Warn("Classifier detection failed for chat image", zap.Error(err))
		} else {
			detection = d
		}
	}

	if b.gemini.Configured() {
		var prompt strings.Builder
		prompt.WriteString(chatSystemPrompt)
		fmt.Fprintf(&prompt, "\n\nUser has uploaded a crop/plant image and asks: %s\n", message)

		if detection != nil {
			fmt.Fprintf(&prompt, "\nClassifier detection results:\n- Primary Detection: %s\n- Confidence: %.1f%%\n",
				detection.Disease, detection.Confidence)
		}

		prompt.WriteString(`
Please provide:
1. Visual Analysis: describe what you see in the image
2. Disease Assessment: confirm or refine the detection
3. Severity Level: Low/Moderate/High
4. Immediate Actions: 3-5 urgent steps to take
5. Treatment Plan: organic options with exact measurements, chemical options with safety notes
6. Prevention: future prevention strategies

Be specific with dosages, timings, and application methods.`)

		appendLanguageInstruction(&prompt, language)

		response, err := b.gemini.GenerateWithImage(ctx, prompt.String(), image, imageType)
		if err == nil {
			return &models.ChatReply{
				Response: response,
				Suggestions: []string{
					"Show me organic treatment details",
					"What's the application schedule?",
					"How to prevent spread to other plants?",
				},
			}
		}
		b.logger.Error("Gemini vision generation failed, using detection-only reply", zap.Error(err))
	}

	if detection != nil {
		treatment := RecommendTreatment(detection.Disease)
		response := fmt.Sprintf(
			"Based on image analysis:\n\nDisease Detected: %s\nConfidence: %.1f%%\n\nRecommended organic treatment: %s\n\nUpload another image or ask specific questions about this disease.",
			detection.Disease, detection.Confidence, strings.Join(treatment.Organic, "; "))
		return &models.ChatReply{
			Response: response,
			Suggestions: []string{
				"Tell me more about this disease",
				"What organic treatments work?",
				"How long until recovery?",
			},
		}
	}

	return &models.ChatReply{
		Response: "I'm having trouble analyzing the image. Please ensure it's a clear photo of the affected plant parts. You can also describe what you see, and I'll help based on your description.",
		Suggestions: []string{
			"Describe the symptoms you see",
			"What crop is affected?",
			"When did symptoms appear?",
		},
	}
}

func appendLanguageInstruction(prompt *strings.Builder, language string) {
	switch language {
	case "te":
		prompt.WriteString("\nRespond in Telugu language.")
	case "hi":
		prompt.WriteString("\nRespond in Hindi language.")
	}
}

func (b *Chatbot) fallbackReply(message string, kbContext []string) *models.ChatReply {
	if len(kbContext) > 0 {
		return &models.ChatReply{
			Response:    strings.Join(kbContext, "\n\n"),
			Suggestions: topicSuggestions(message),
		}
	}

	lower := strings.ToLower(message)
	var response string
	switch {
	case strings.Contains(lower, "disease") || strings.Contains(lower, "problem"):
		response = "For disease identification:\n1. Upload a clear photo of affected parts\n2. Look for spots, discoloration, wilting or mold\n3. Common diseases: early blight, late blight, powdery mildew\n4. Immediate action: remove affected parts and improve air circulation\n\nNeed specific help? Describe the symptoms you see."
	case strings.Contains(lower, "fertilizer"):
		response = "Fertilizer basics:\n- Vegetative growth: 20-10-10\n- Flowering/fruiting: 10-26-26\n- Balanced: 19-19-19\n\nApply a base dose during land preparation and top dressing at 30 and 45 days after planting, around 100-120 kg/acre. Organic options: vermicompost 2-3 tons/acre, FYM 5-10 tons/acre."
	case strings.Contains(lower, "pest") || strings.Contains(lower, "insect"):
		response = "Pest management:\n1. Aphids: neem oil (5ml/L) or yellow sticky traps\n2. Whiteflies: soap solution spray, reflective mulch\n3. Caterpillars: Bt spray, manual picking\n\nMonitor regularly, use pheromone traps, encourage natural predators, and spray chemicals only as a last resort."
	case strings.Contains(lower, "water") || strings.Contains(lower, "irrigation"):
		response = "Irrigation management:\n- Most vegetables need 1-2 inches of water per week\n- Critical stages: flowering and fruit development\n- Drip irrigation is the most efficient method (about 90%)\n\nWater in the early morning or evening, mulch to reduce evaporation, and avoid overwatering."
	default:
		response = "I'm AgriSage, your farming assistant! I can help with crop diseases (upload photos for identification), fertilizers, pest control, irrigation and crop management. Ask me anything about farming, or upload a photo for analysis!"
	}

	return &models.ChatReply{
		Response:    response,
		Suggestions: topicSuggestions(message),
	}
}

func topicSuggestions(message string) []string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "disease", "sick", "spot", "blight"):
		return []string{
			"Upload photo for disease identification",
			"How to prevent disease spread?",
			"Organic disease control methods",
		}
	case containsAny(lower, "fertilizer", "nutrient", "npk"):
		return []string{
			"Best fertilizer for my crop?",
			"Organic vs chemical fertilizers",
			"Fertilizer application schedule",
		}
	case containsAny(lower, "pest", "insect", "worm"):
		return []string{
			"Natural pest control methods",
			"Identify pest from photo",
			"IPM strategies for vegetables",
		}
	case containsAny(lower, "water", "irrigation"):
		return []string{
			"Drip irrigation setup guide",
			"Water conservation methods",
			"Irrigation scheduling",
		}
	case containsAny(lower, "plant", "seed", "grow"):
		return []string{
			"Best planting season?",
			"Seed treatment methods",
			"Crop spacing guidelines",
		}
	default:
		return []string{
			"Disease identification from photo",
			"Fertilizer recommendations",
			"Pest control strategies",
		}
	}
}

// smartSuggestions derives follow-ups from what the model actually said,
// topping up with defaults to keep three chips.
func smartSuggestions(query, response string) []string {
	lower := strings.ToLower(response)

	var suggestions []string
	if strings.Contains(lower, "organic") {
		suggestions = append(suggestions, "Compare with chemical alternatives")
	}
	if strings.Contains(lower, "spray") || strings.Contains(lower, "application") {
		suggestions = append(suggestions, "What's the best time to spray?")
	}
	if strings.Contains(lower, "disease") {
		suggestions = append(suggestions, "How to prevent recurrence?")
	}
	if containsAny(lower, "harvest", "yield") {
		suggestions = append(suggestions, "Post-harvest storage tips")
	}

	for _, extra := range []string{"Show treatment schedule", "Cost-benefit analysis", "Success stories from farmers"} {
		if len(suggestions) >= 3 {
			break
		}
		suggestions = append(suggestions, extra)
	}

	return suggestions[:3]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

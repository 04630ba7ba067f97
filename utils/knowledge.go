package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"go.uber.org/zap"
)

// KnowledgeBase supplies farming context snippets for chat prompts. When a
// Pinecone index is configured it retrieves semantically similar entries;
// otherwise it falls back to keyword lookup over the built-in knowledge.
type KnowledgeBase struct {
	index  *pinecone.IndexConnection
	logger *zap.Logger
}

func NewKnowledgeBase() *KnowledgeBase {
	logger := zap.L().With(zap.String("component", "knowledge_base"))

	index, err := connectKnowledgeIndex()
	if err != nil {
		logger.Warn("Pinecone knowledge index unavailable, using built-in knowledge only", zap.Error(err))
	}

	return &KnowledgeBase{index: index, logger: logger}
}

func connectKnowledgeIndex() (*pinecone.IndexConnection, error) {
	indexName := os.Getenv("PINECONE_INDEX")
	if indexName == "" {
		return nil, fmt.Errorf("PINECONE_INDEX environment variable is not set")
	}

	pineconeAPIKey := os.Getenv("PINECONE_API_KEY")
	if pineconeAPIKey == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY environment variable is not set")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: pineconeAPIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	ctx := context.Background()
	idx, err := client.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %q: %w", indexName, err)
	}

	idxConnection, err := client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: "agrisage-knowledge"})
	if err != nil {
		return nil, fmt.Errorf("failed to create IndexConnection for host %v: %w", idx.Host, err)
	}

	return idxConnection, nil
}

// Context returns up to a handful of knowledge snippets relevant to the
// query for inclusion in the chat prompt.
func (kb *KnowledgeBase) Context(ctx context.Context, query string) []string {
	if kb.index != nil {
		snippets, err := kb.retrieve(ctx, query)
		if err != nil {
			kb.logger.Error("Knowledge retrieval failed, falling back to built-in knowledge", zap.Error(err))
		} else if len(snippets) > 0 {
			return snippets
		}
	}

	return searchBuiltinKnowledge(query)
}

func (kb *KnowledgeBase) retrieve(ctx context.Context, query string) ([]string, error) {
	embedding, err := embedText(ctx, "text-embedding-ada-002", query)
	if err != nil {
		return nil, fmt.Errorf("error vectorizing query: %w", err)
	}

	queryRequest := &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            5,
		IncludeValues:   false,
		IncludeMetadata: true,
	}

	queryResponse, err := kb.index.QueryByVectorValues(ctx, queryRequest)
	if err != nil {
		return nil, fmt.Errorf("error querying Pinecone index: %w", err)
	}

	var matches []string
	for _, match := range queryResponse.Matches {
		if match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		if value, ok := match.Vector.Metadata.Fields["text"]; ok {
			if text := value.GetStringValue(); text != "" {
				matches = append(matches, text)
			}
		}
	}

	return matches, nil
}

func embedText(ctx context.Context, model, text string) ([]float32, error) {
	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if openAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	requestBody := map[string]interface{}{
		"input": text,
		"model": model,
	}
	requestBodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/embeddings", bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+openAIAPIKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var responseData struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &responseData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}
	if len(responseData.Data) == 0 {
		return nil, fmt.Errorf("no data in OpenAI API response")
	}

	return responseData.Data[0].Embedding, nil
}

// Built-in farming knowledge for when no vector index is configured.
var builtinKnowledge = map[string]string{
	"early blight":   "Early blight: dark spots with concentric rings, yellowing, leaf drop. Treat with copper fungicide or neem oil, remove affected leaves. Prevent with crop rotation, resistant varieties and proper spacing.",
	"late blight":    "Late blight: water-soaked spots, white fungal growth, rapid plant death. Treat with metalaxyl or chlorothalonil, destroy infected plants. Prevent with resistant varieties and good drainage.",
	"powdery mildew": "Powdery mildew: white powdery coating on leaves, stunted growth. Treat with sulfur spray, baking soda solution or neem oil. Prevent with good air circulation and avoiding excess nitrogen.",
	"bacterial spot": "Bacterial spot: dark spots with yellow halos, browning leaf edges. Treat with copper-based bactericides, remove infected parts. Prevent with disease-free seeds and dry foliage.",
	"leaf curl":      "Leaf curl: leaves curl upward and turn thick and leathery. Remove affected parts, control whitefly vectors. Prevent with resistant varieties.",
	"fertilizer":     "NPK guidance: 10-26-26 for flowering and fruiting, 20-20-20 for balanced growth, applied at planting and before flowering. Organic options: compost, vermicompost (2-3 tons per acre), green manure. Micronutrient deficiency shows as yellowing between veins; apply 0.5% foliar spray.",
	"aphid":          "Aphids suck plant sap and transmit viruses. Control with neem oil, soap spray, ladybugs and yellow sticky traps. Prevent with weed removal and reflective mulches.",
	"whitefl":        "Whiteflies transmit viruses and cause sooty mold. Control with yellow sticky traps, neem oil and systemic insecticides. Remove host plants.",
	"caterpillar":    "Caterpillars eat leaves and bore into fruits. Control with Bt spray, manual removal and pheromone traps.",
	"irrigation":     "Drip irrigation reaches 90% efficiency and reduces disease; sprinklers about 75%. Irrigate at 50% soil-moisture depletion, early morning preferred. Conserve with mulching and rainwater harvesting.",
	"water":          "Most vegetables need 1-2 inches of water per week, most critically at flowering and fruit development. Check soil moisture at 2-inch depth and water at soil level to limit foliar disease.",
	"tomato":         "Tomato: Kharif sowing June-July, Rabi October-November, 45x30 cm spacing, harvest 60-90 days after transplanting, typical yield 25-35 tons per acre.",
	"potato":         "Potato: plant October-November at 60x20 cm spacing, harvest in 75-90 days, typical yield 10-12 tons per acre.",
	"onion":          "Onion: Kharif June-July or Rabi October-December, 15x10 cm spacing, harvest in 120-150 days, typical yield 12-15 tons per acre.",
}

func searchBuiltinKnowledge(query string) []string {
	lower := strings.ToLower(query)

	var snippets []string
	for keyword, snippet := range builtinKnowledge {
		if strings.Contains(lower, keyword) {
			snippets = append(snippets, snippet)
		}
	}
	return snippets
}

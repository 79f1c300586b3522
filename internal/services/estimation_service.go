package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
	"github.com/vladimiradmaev/glucolog/internal/logger"
)

// EstimationService suggests the carbohydrate content of a photographed
// meal, asking Gemini first and falling back to OpenAI. Estimates are
// advisory: the caller logs the food event with whatever grams the user
// confirms, and the domain factory validates that value as usual.
type EstimationService struct {
	geminiClient *genai.Client
	openaiClient *openai.Client
}

func NewEstimationService(ctx context.Context, cfg config.AIConfig) (*EstimationService, error) {
	s := &EstimationService{}
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
	}
	if cfg.OpenAIAPIKey != "" {
		s.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}
	if s.geminiClient == nil && s.openaiClient == nil {
		return nil, errors.New("no estimation provider configured")
	}
	return s, nil
}

// CarbEstimate is a provider's answer converted into domain terms.
type CarbEstimate struct {
	Carbs      domain.Carbohydrate
	FoodItems  []string
	Confidence string
	Rationale  string
	Provider   string // "gemini" or "openai"
}

type estimateResult struct {
	FoodItems    []string `json:"food_items"`
	Carbs        float64  `json:"carbs"`
	Confidence   string   `json:"confidence"`
	AnalysisText string   `json:"analysis_text"`
}

// EstimateCarbs analyzes the meal photo at photoURL. A positive weightGrams
// tells the model the measured portion weight; zero lets it estimate one.
func (s *EstimationService) EstimateCarbs(ctx context.Context, photoURL string, weightGrams float64) (*CarbEstimate, error) {
	if strings.TrimSpace(photoURL) == "" {
		return nil, apperrors.NewValidationError("photo url is required")
	}

	var geminiErr error
	if s.geminiClient != nil {
		estimate, err := s.estimateWithGemini(ctx, photoURL, weightGrams)
		if err == nil {
			return estimate, nil
		}
		geminiErr = err
		if s.openaiClient != nil {
			logger.Warn("Gemini estimation failed, trying OpenAI", "error", err)
		}
	}
	if s.openaiClient != nil {
		return s.estimateWithOpenAI(ctx, photoURL, weightGrams)
	}
	return nil, geminiErr
}

func (s *EstimationService) estimateWithGemini(ctx context.Context, photoURL string, weightGrams float64) (*CarbEstimate, error) {
	model := s.geminiClient.GenerativeModel("gemini-1.5-flash")

	// Gemini takes raw image bytes, so download the photo first.
	resp, err := http.Get(photoURL)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "photo")
	}
	defer resp.Body.Close()

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "photo")
	}

	img := genai.ImageData("image/jpeg", imageData)
	geminiResp, err := model.GenerateContent(ctx, img, genai.Text(buildEstimatePrompt(weightGrams)))
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "gemini")
	}
	if len(geminiResp.Candidates) == 0 || geminiResp.Candidates[0].Content == nil || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.NewUpstreamError(errors.New("empty model response"), "gemini")
	}
	text, ok := geminiResp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, apperrors.NewUpstreamError(errors.New("unexpected response part type"), "gemini")
	}
	return parseEstimate(string(text), "gemini")
}

func (s *EstimationService) estimateWithOpenAI(ctx context.Context, photoURL string, weightGrams float64) (*CarbEstimate, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4VisionPreview,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: buildEstimatePrompt(weightGrams),
						},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL: photoURL,
							},
						},
					},
				},
			},
			MaxTokens: 1000,
		},
	)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "openai")
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewUpstreamError(errors.New("empty model response"), "openai")
	}
	return parseEstimate(resp.Choices[0].Message.Content, "openai")
}

func buildEstimatePrompt(weightGrams float64) string {
	weightSection := `WEIGHT INFORMATION:
- No measured weight is available
- Estimate the portion weight yourself from the image`
	if weightGrams > 0 {
		weightSection = fmt.Sprintf(`WEIGHT INFORMATION:
- The user weighed the portion at %.1f grams
- Adjust your carbohydrate calculation to this exact weight
- Mention the weight in your reasoning`, weightGrams)
	}
	return fmt.Sprintf(`You are a certified diabetes educator specializing in nutrition analysis.
You will analyze the food in the image to estimate its carbohydrate content accurately for diabetes management.

TASK:
1. Identify the food items in the image
2. Estimate total carbohydrates (in grams) based on standard nutritional databases
3. Assess your confidence in this estimation (low, medium, high)
4. Provide the information in a specific JSON format

REQUIREMENTS:
- Be medically precise in your carbohydrate estimation
- Include both visible ingredients and likely hidden ingredients that contain carbs
- Consider portion sizes carefully
- If the image contains nutritional information or packaging, prioritize that data
- Keep the analysis text concise and focused on how the calculation was made

%s

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object
- Do not include any explanatory text before or after the JSON
- The JSON must have these exact fields:
  {
    "food_items": ["item1", "item2"],
    "carbs": 123.45,
    "confidence": "low|medium|high",
    "analysis_text": "short methodology"
  }`, weightSection)
}

func parseEstimate(raw, provider string) (*CarbEstimate, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, apperrors.NewUpstreamError(errors.New("no valid JSON found in response"), provider)
	}
	var result estimateResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, apperrors.NewUpstreamError(err, provider)
	}
	carbs, err := domain.NewCarbohydrate(int(math.Round(result.Carbs)))
	if err != nil {
		return nil, apperrors.NewUpstreamError(fmt.Errorf("estimated carbs out of range: %.1f", result.Carbs), provider)
	}
	return &CarbEstimate{
		Carbs:      carbs,
		FoodItems:  result.FoodItems,
		Confidence: result.Confidence,
		Rationale:  result.AnalysisText,
		Provider:   provider,
	}, nil
}

// extractJSON attempts to extract a valid JSON object from the given string.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```) or other text.
func extractJSON(s string) string {
	// Try to find a JSON object (starting with '{' and ending with '}')
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

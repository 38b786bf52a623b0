package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
	"github.com/stepwise/planner/internal/schedule"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const systemPrompt = "You are an academic assistant that helps break down assignments into manageable tasks. " +
	"You provide clear, actionable steps with helpful tips for each stage of the assignment. " +
	"Always respond with pure JSON without any markdown formatting or additional text."

// OpenAIAnalyzer implements the Analyzer interface using OpenAI's API
type OpenAIAnalyzer struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIAnalyzer creates a new OpenAI-backed analyzer
func NewOpenAIAnalyzer(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIAnalyzer {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIAnalyzer{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// AnalyzeAssignment asks the model for a structured breakdown of the
// assignment text. The prompt constrains the step count to the days
// remaining before dueDate and requires unique step titles.
func (p *OpenAIAnalyzer) AnalyzeAssignment(ctx context.Context, text, dueDate string, today time.Time) (*models.Analysis, error) {
	prompt := buildAnalysisPrompt(text, dueDate, today)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "analyze_assignment"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "analyze_assignment"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to analyze assignment: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to analyze assignment: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "analyze_assignment"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	analysis, err := parseAnalysisResponse(content, dueDate)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// buildAnalysisPrompt mirrors the planner's production prompt: Korean
// output, steps bounded by the remaining days, one date per step, strict
// JSON without code fences.
func buildAnalysisPrompt(text, dueDate string, today time.Time) string {
	todayStr := today.UTC().Format("2006-01-02")
	var b strings.Builder
	b.WriteString("아래 과제를 분석하여 구조화된 분석 결과를 제공해주세요:\n")
	b.WriteString("Assignment: " + text + "\n")
	b.WriteString("Due Date: " + dueDate + "\n")
	b.WriteString("Today's Date: " + todayStr + "\n\n")
	b.WriteString("다음 내용을 반드시 포함하세요:\n")
	b.WriteString("1. 과제의 핵심 주제를 잘 드러내는 간결한 제목 (\"title\")\n")
	b.WriteString("2. 과제의 목적과 요구사항을 요약한 요약문 (\"summary\")\n")
	b.WriteString("3. 난이도 (다섯 단계로 구분: 매우 쉬움, 쉬움, 보통, 어려움, 매우 어려움 중 선택)\n")
	b.WriteString("4. 예상 소요 시간 (\"estimatedTime\")\n")
	b.WriteString("5. A series of steps with titles, descriptions, and helpful tips (\"steps\")\n\n")
	b.WriteString("**중요 조건**:\n")
	b.WriteString("- 출력은 반드시 **한국어**로 작성해주세요.\n")
	b.WriteString("- steps의 개수는 Today's Date와 Due Date의 남은 날짜보다 많지 않아야 합니다.\n")
	b.WriteString("- 각 step에는 title, description, tip, date (오늘부터 마감일까지 균등 분배)를 포함해야 합니다.\n")
	b.WriteString("- steps는 각 날짜에 하나씩 배정하며, 전체 수행 기간을 고려하여 균등하게 분배해야 합니다.\n")
	b.WriteString("- difficulty는 과제의 복잡성과 시간 소요를 고려하여 다섯 단계 중 하나로 지정하세요.\n")
	b.WriteString("- 출력은 다음과 같은 JSON 형식으로 정확히 맞춰주세요:\n\n")
	b.WriteString(`{
  "title": "과제 제목 (한국어)",
  "summary": "과제 요약 (한국어)",
  "difficulty": "매우 쉬움|쉬움|보통|어려움|매우 어려움",
  "estimatedTime": "예상 소요 시간 (예:'12시간')",
  "dueDate": "` + dueDate + `",
  "steps": [
    {
      "title": "단계 제목",
      "description": "단계에 대한 자세한 설명",
      "tip": "도움이 되는 팁",
      "date": "YYYY-MM-DD",
      "completed": false,
      "status": "pending"
    }
  ]
}
`)
	b.WriteString("\nPlease return the output strictly as raw JSON.\n")
	b.WriteString("Do NOT wrap it in ```json or ``` blocks.\n")
	b.WriteString("- Ensure each step has a unique title.\n")
	b.WriteString("- Do not repeat or duplicate any step.\n")
	b.WriteString("- The response must be a valid JSON. Verify before returning.")
	return b.String()
}

// analysisWire is the shape the model is asked to produce
type analysisWire struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Difficulty    string `json:"difficulty"`
	EstimatedTime string `json:"estimatedTime"`
	DueDate       string `json:"dueDate"`
	Steps         []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Tip         string `json:"tip"`
		Date        string `json:"date"`
	} `json:"steps"`
}

// parseAnalysisResponse decodes the model output into an Analysis. Code
// fences are stripped and, failing a direct parse, the outermost brace
// window is retried before giving up.
func parseAnalysisResponse(content, dueDate string) (*models.Analysis, error) {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var wire analysisWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
	}

	if wire.Title == "" {
		return nil, fmt.Errorf("analysis response missing title")
	}

	analysis := &models.Analysis{
		Title:         wire.Title,
		Summary:       wire.Summary,
		Difficulty:    normalizeDifficulty(wire.Difficulty),
		EstimatedTime: wire.EstimatedTime,
		DueDate:       dueDate,
	}
	if normalized, ok := schedule.NormalizeDate(wire.DueDate); ok {
		analysis.DueDate = normalized
	}

	for _, ws := range wire.Steps {
		date := ws.Date
		if normalized, ok := schedule.NormalizeDate(ws.Date); ok {
			date = normalized
		}
		analysis.Steps = append(analysis.Steps, models.Step{
			ID:           uuid.New(),
			Title:        ws.Title,
			Description:  ws.Description,
			Tip:          ws.Tip,
			AssignedDate: date,
			Completed:    false,
			Status:       models.StepStatusPending,
		})
	}
	return analysis, nil
}

// normalizeDifficulty clamps unexpected values to the middle level
func normalizeDifficulty(value string) models.Difficulty {
	d := models.Difficulty(strings.TrimSpace(value))
	switch d {
	case models.DifficultyVeryEasy, models.DifficultyEasy, models.DifficultyNormal,
		models.DifficultyHard, models.DifficultyVeryHard:
		return d
	default:
		return models.DifficultyNormal
	}
}

package extraction

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

//go:embed prompt.md
var promptTemplate string

// Ограничение длины текста CV в запросе (в символах).
const maxPromptText = 30000

// contentGenerator — отправка промпта в LLM и получение текстового ответа.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiExtractor извлекает атрибуты кандидата через Gemini:
// текст документа → промпт → JSON-ответ.
type GeminiExtractor struct {
	generator contentGenerator
	logger    *slog.Logger
}

// NewGeminiExtractor создаёт экстрактор на основе LLM-генератора.
func NewGeminiExtractor(generator contentGenerator, logger *slog.Logger) *GeminiExtractor {
	return &GeminiExtractor{
		generator: generator,
		logger:    logger.With(slog.String("component", "gemini_extractor")),
	}
}

// Name возвращает имя реализации.
func (e *GeminiExtractor) Name() string { return "gemini" }

// Extract извлекает атрибуты кандидата через LLM.
func (e *GeminiExtractor) Extract(ctx context.Context, doc Document) (*model.CandidateAttributes, error) {
	text, err := readText(doc)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: документ не содержит текста", ErrExtraction)
	}
	if utf8.RuneCountInString(text) > maxPromptText {
		text = string([]rune(text)[:maxPromptText])
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CV_TEXT}}", text)

	e.logger.Debug("Запрос к Gemini",
		slog.String("upload_id", doc.UploadID),
		slog.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: запрос к Gemini: %v", ErrExtraction, err)
	}

	attrs, err := parseAttributes(raw)
	if err != nil {
		e.logger.Warn("Некорректный ответ Gemini",
			slog.String("upload_id", doc.UploadID),
			slog.Int("response_length", len(raw)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return attrs, nil
}

// parseAttributes разбирает JSON-ответ модели. Допускает обрамление
// в markdown-блок кода и текст вокруг JSON-объекта.
func parseAttributes(raw string) (*model.CandidateAttributes, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: ответ модели не содержит JSON-объекта", ErrExtraction)
	}

	var payload struct {
		Name            string   `json:"name"`
		Skills          []string `json:"skills"`
		ExperienceYears float64  `json:"experience_years"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: разбор JSON ответа модели: %v", ErrExtraction, err)
	}
	years := payload.ExperienceYears
	if math.IsNaN(years) || math.IsInf(years, 0) {
		return nil, fmt.Errorf("%w: некорректный опыт работы", ErrExtraction)
	}
	if years < 0 || years > MaxExperienceYears {
		return nil, fmt.Errorf("%w: опыт работы вне диапазона (%g)", ErrExtraction, years)
	}

	return &model.CandidateAttributes{
		Name:            payload.Name,
		Skills:          payload.Skills,
		ExperienceYears: int(math.Round(years)),
	}, nil
}

// GenaiGenerator — клиент Google GenAI для текстовых запросов.
type GenaiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGenaiGenerator создаёт клиент Gemini API.
func NewGenaiGenerator(ctx context.Context, apiKey, modelName string) (*GenaiGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("не задан API-ключ Gemini")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("создание клиента genai: %w", err)
	}

	return &GenaiGenerator{client: client, modelName: modelName}, nil
}

// GenerateContent отправляет промпт и возвращает объединённый текст ответа.
func (g *GenaiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("пустой ответ Gemini")
	}
	return output, nil
}

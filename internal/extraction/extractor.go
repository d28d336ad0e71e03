// Пакет extraction — извлечение атрибутов кандидата (имя, навыки, опыт)
// из файла CV. Реализации: заглушка с фиксированным результатом,
// извлечение по словарю навыков из текста документа и извлечение через Gemini.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/skillmatch/internal/config"
	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// ErrExtraction — файл не удалось прочитать или обработать.
var ErrExtraction = errors.New("ошибка извлечения данных из CV")

// MaxExperienceYears — верхняя граница правдоподобного опыта работы.
const MaxExperienceYears = 80

// Document — файл CV, переданный на извлечение.
type Document struct {
	// UploadID — UUID загрузки
	UploadID string
	// Path — путь к файлу на диске
	Path string
	// OriginalFilename — исходное имя файла (определяет формат)
	OriginalFilename string
	// Checksum — SHA-256 содержимого, ключ кэша
	Checksum string
}

// Extractor извлекает атрибуты кандидата из документа.
// Ошибки чтения и обработки файла оборачивают ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*model.CandidateAttributes, error)
	// Name — имя реализации (метка метрик и логов).
	Name() string
}

// New создаёт экстрактор согласно конфигурации. Результат обёрнут
// метриками и, при SM_EXTRACTION_CACHE_SIZE > 0, кэшем по checksum.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Extractor, error) {
	var base Extractor

	switch cfg.Extractor {
	case config.ExtractorStub:
		base = NewStubExtractor()
	case config.ExtractorDocument:
		base = NewDocumentExtractor(nil)
	case config.ExtractorGemini:
		gen, err := NewGenaiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("инициализация Gemini: %w", err)
		}
		base = NewGeminiExtractor(gen, logger)
	default:
		return nil, fmt.Errorf("неизвестный экстрактор %q", cfg.Extractor)
	}

	var ext Extractor = NewInstrumented(base)
	if cfg.ExtractionCacheSize > 0 {
		ext = NewCachingExtractor(ext, cfg.ExtractionCacheSize, cfg.ExtractionCacheTTL)
	}

	logger.Info("Экстрактор CV инициализирован",
		slog.String("extractor", base.Name()),
		slog.Int("cache_size", cfg.ExtractionCacheSize),
	)
	return ext, nil
}

// Normalize приводит извлечённые атрибуты к каноническому виду:
// обрезает пробелы, убирает пустые и повторяющиеся навыки с сохранением
// порядка. Пустое имя и опыт вне [0, MaxExperienceYears] считаются ошибкой извлечения.
func Normalize(attrs *model.CandidateAttributes) (*model.CandidateAttributes, error) {
	if attrs == nil {
		return nil, fmt.Errorf("%w: пустой результат", ErrExtraction)
	}

	name := strings.TrimSpace(attrs.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: не удалось определить имя кандидата", ErrExtraction)
	}
	if attrs.ExperienceYears < 0 {
		return nil, fmt.Errorf("%w: отрицательный опыт работы (%d)", ErrExtraction, attrs.ExperienceYears)
	}
	if attrs.ExperienceYears > MaxExperienceYears {
		return nil, fmt.Errorf("%w: неправдоподобный опыт работы (%d)", ErrExtraction, attrs.ExperienceYears)
	}

	seen := make(map[string]struct{}, len(attrs.Skills))
	skills := make([]string, 0, len(attrs.Skills))
	for _, s := range attrs.Skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}

	return &model.CandidateAttributes{
		Name:            name,
		Skills:          skills,
		ExperienceYears: attrs.ExperienceYears,
	}, nil
}

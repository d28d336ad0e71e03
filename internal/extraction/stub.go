package extraction

import (
	"context"
	"fmt"
	"os"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// StubExtractor проверяет доступность файла и возвращает фиксированный
// результат. Используется по умолчанию, пока не подключено реальное извлечение.
type StubExtractor struct{}

// NewStubExtractor создаёт экстрактор-заглушку.
func NewStubExtractor() *StubExtractor {
	return &StubExtractor{}
}

// Name возвращает имя реализации.
func (s *StubExtractor) Name() string { return "stub" }

// Extract возвращает {Jane Doe, [Python Django AI], 5} для любого читаемого файла.
func (s *StubExtractor) Extract(_ context.Context, doc Document) (*model.CandidateAttributes, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: файл %s недоступен: %v", ErrExtraction, doc.OriginalFilename, err)
	}
	f.Close()

	return &model.CandidateAttributes{
		Name:            "Jane Doe",
		Skills:          []string{"Python", "Django", "AI"},
		ExperienceYears: 5,
	}, nil
}

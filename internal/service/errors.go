// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bigkaa/skillmatch/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrExtraction — не удалось извлечь данные из CV.
	ErrExtraction = errors.New("не удалось извлечь данные из CV")
)

// validateID проверяет, что id — корректный UUID.
func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s '%s' не является UUID", ErrValidation, field, id)
	}
	return nil
}

// mapListErr переводит ошибку выборки списка в ошибку сервисного слоя.
func mapListErr(op string, err error) error {
	if errors.Is(err, repository.ErrInvalidSort) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

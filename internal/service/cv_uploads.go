// cv_uploads.go — сервис загрузок CV: приём файла, список, получение, удаление.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/repository"
	"github.com/bigkaa/skillmatch/internal/storage/filestore"
)

// FileStore — файловое хранилище CV. Реализуется *filestore.FileStore.
type FileStore interface {
	SaveFile(reader io.Reader, originalFilename string) (*filestore.SaveResult, error)
	Open(storagePath string) (*os.File, error)
	DeleteFile(storagePath string) error
}

// CVUploadService — сервис загрузок CV.
type CVUploadService struct {
	repo       repository.CVUploadRepository
	files      FileStore
	allowedExt []string
	logger     *slog.Logger
}

// NewCVUploadService создаёт сервис загрузок CV.
// allowedExt — допустимые расширения в нижнем регистре с точкой.
func NewCVUploadService(
	repo repository.CVUploadRepository,
	files FileStore,
	allowedExt []string,
	logger *slog.Logger,
) *CVUploadService {
	return &CVUploadService{
		repo:       repo,
		files:      files,
		allowedExt: allowedExt,
		logger:     logger.With(slog.String("component", "cv_upload_service")),
	}
}

// Upload сохраняет файл в хранилище и создаёт запись CVUpload.
// При ошибке записи в БД файл удаляется из хранилища.
func (s *CVUploadService) Upload(ctx context.Context, r io.Reader, filename, contentType string) (*model.CVUpload, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("%w: не указано имя файла", ErrValidation)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(s.allowedExt, ext) {
		return nil, fmt.Errorf("%w: недопустимое расширение %q, допустимые: %s",
			ErrValidation, ext, strings.Join(s.allowedExt, ", "))
	}

	saved, err := s.files.SaveFile(r, filename)
	if err != nil {
		if errors.Is(err, filestore.ErrEmptyFile) || errors.Is(err, filestore.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("сохранение файла: %w", err)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	u := &model.CVUpload{
		ID:               uuid.New().String(),
		FilePath:         saved.StoragePath,
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             saved.Size,
		Checksum:         saved.Checksum,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if delErr := s.files.DeleteFile(saved.StoragePath); delErr != nil {
			s.logger.Warn("Не удалось удалить файл после ошибки записи в БД",
				slog.String("path", saved.StoragePath),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("сохранение загрузки CV: %w", err)
	}

	s.logger.Info("CV загружен",
		slog.String("cv_upload_id", u.ID),
		slog.String("filename", filename),
		slog.Int64("size", u.Size),
	)
	return u, nil
}

// List возвращает страницу загрузок и их общее количество.
func (s *CVUploadService) List(ctx context.Context, params model.ListParams) ([]*model.CVUpload, int, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, mapListErr("получение списка загрузок CV", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт загрузок CV: %w", err)
	}
	return items, total, nil
}

// Get возвращает загрузку по ID.
func (s *CVUploadService) Get(ctx context.Context, id string) (*model.CVUpload, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: загрузка CV '%s' не найдена", ErrNotFound, id)
		}
		return nil, fmt.Errorf("получение загрузки CV: %w", err)
	}
	return u, nil
}

// Open возвращает загрузку и открытый файл для скачивания.
// Вызывающий код обязан закрыть файл.
func (s *CVUploadService) Open(ctx context.Context, id string) (*model.CVUpload, io.ReadSeekCloser, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(u.FilePath)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: файл загрузки '%s' отсутствует в хранилище", ErrNotFound, id)
		}
		return nil, nil, err
	}
	return u, f, nil
}

// Delete удаляет загрузку (с каскадным удалением кандидата) и файл.
// Ошибка удаления файла только логируется.
func (s *CVUploadService) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: загрузка CV '%s' не найдена", ErrNotFound, id)
		}
		return fmt.Errorf("удаление загрузки CV: %w", err)
	}
	if err := s.files.DeleteFile(u.FilePath); err != nil {
		s.logger.Warn("Не удалось удалить файл CV",
			slog.String("cv_upload_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Загрузка CV удалена", slog.String("cv_upload_id", id))
	return nil
}

// Пакет filestore — хранение файлов CV на локальном диске.
// Запись потоковая, SHA-256 считается на лету, файл появляется
// под итоговым именем только после fsync и атомарного rename.
package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ошибки файлового хранилища.
var (
	// ErrEmptyFile — загружен файл нулевого размера.
	ErrEmptyFile = errors.New("файл пуст")
	// ErrTooLarge — превышен лимит размера файла.
	ErrTooLarge = errors.New("превышен допустимый размер файла")
	// ErrNotFound — файл отсутствует в хранилище.
	ErrNotFound = errors.New("файл не найден в хранилище")
)

// FileStore — управление файлами CV на диске.
type FileStore struct {
	// dataDir — корневая директория хранения (SM_DATA_DIR)
	dataDir string
	// maxSize — лимит размера одного файла в байтах (0 — без лимита)
	maxSize int64
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StoragePath — имя файла относительно dataDir
	StoragePath string
	// FullPath — путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 хэш содержимого (hex)
	Checksum string
}

// New создаёт FileStore. Создаёт директорию, если она не существует.
func New(dataDir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}
	return &FileStore{dataDir: dataDir, maxSize: maxSize}, nil
}

// SaveFile записывает данные из reader на диск с подсчётом SHA-256.
// Формат имени: {name}_{timestamp}_{uuid8}.{ext}.
// Пустой файл и превышение лимита размера отклоняются,
// временный файл при любой ошибке удаляется.
func (fs *FileStore) SaveFile(reader io.Reader, originalFilename string) (*SaveResult, error) {
	storageName := generateStorageName(originalFilename)
	fullPath := filepath.Join(fs.dataDir, storageName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	fail := func(err error) (*SaveResult, error) {
		f.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	if fs.maxSize > 0 {
		// +1 байт, чтобы отличить «ровно лимит» от превышения
		reader = io.LimitReader(reader, fs.maxSize+1)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(reader, hasher))
	if err != nil {
		return fail(fmt.Errorf("ошибка записи данных: %w", err))
	}
	if size == 0 {
		return fail(ErrEmptyFile)
	}
	if fs.maxSize > 0 && size > fs.maxSize {
		return fail(fmt.Errorf("%w: лимит %d байт", ErrTooLarge, fs.maxSize))
	}

	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("ошибка fsync: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StoragePath: storageName,
		FullPath:    fullPath,
		Size:        size,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(storagePath string) (*os.File, error) {
	f, err := os.Open(fs.FullPath(storagePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storagePath, err)
	}
	return f, nil
}

// FullPath возвращает путь к файлу на диске.
// Компоненты каталогов в storagePath отбрасываются.
func (fs *FileStore) FullPath(storagePath string) string {
	return filepath.Join(fs.dataDir, filepath.Base(storagePath))
}

// DeleteFile удаляет файл с диска. Отсутствие файла ошибкой не считается.
func (fs *FileStore) DeleteFile(storagePath string) error {
	err := os.Remove(fs.FullPath(storagePath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storagePath, err)
	}
	return nil
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// generateStorageName генерирует имя файла для хранения на диске.
// Пример: jane_doe_cv_20260221150405_a1b2c3d4.pdf
func generateStorageName(originalFilename string) string {
	base := filepath.Base(originalFilename)
	ext := strings.ToLower(filepath.Ext(base))
	name := sanitize(strings.TrimSuffix(base, filepath.Ext(base)))

	if len(name) > 50 {
		name = name[:50]
	}

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.New().String()[:8]

	return fmt.Sprintf("%s_%s_%s%s", name, ts, uid, sanitizeExt(ext))
}

// sanitize оставляет в строке только латиницу, кириллицу, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "cv"
	}
	return result.String()
}

// sanitizeExt оставляет расширение, только если оно состоит из букв и цифр.
func sanitizeExt(ext string) string {
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

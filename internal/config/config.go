// Пакет config — загрузка и валидация конфигурации SkillMatch.
// Источники (по убыванию приоритета): переменные окружения SM_*,
// YAML-файл конфигурации (флаг --config), значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Префикс переменных окружения.
const envPrefix = "SM"

// Допустимые реализации извлечения атрибутов кандидата из CV.
const (
	ExtractorStub     = "stub"
	ExtractorDocument = "document"
	ExtractorGemini   = "gemini"
)

// Config содержит все параметры конфигурации SkillMatch.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Валидация запросов по OpenAPI-спецификации
	OpenAPIValidation bool

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальное число соединений в пуле
	DBMaxConns int

	// --- Хранилище CV ---

	// Каталог для файлов CV
	DataDir string
	// Максимальный размер загружаемого файла (байт)
	UploadMaxSize int64
	// Допустимые расширения файлов (в нижнем регистре, с точкой)
	UploadAllowedExtensions []string

	// --- Извлечение атрибутов ---

	// Реализация экстрактора: stub, document, gemini
	Extractor string
	// Таймаут одного извлечения
	ExtractionTimeout time.Duration
	// Размер кэша результатов извлечения (0 — кэш отключён)
	ExtractionCacheSize int
	// TTL записей кэша извлечения
	ExtractionCacheTTL time.Duration
	// API-ключ Gemini (обязателен для extractor=gemini)
	GeminiAPIKey string
	// Модель Gemini
	GeminiModel string

	// --- Сопоставление ---

	// Количество параллельных воркеров массового сопоставления
	MatchWorkers int

	// --- Topologymetrics ---

	// Группа сервиса в topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию, валидирует обязательные поля
// и возвращает Config или ошибку. configFile может быть пустым.
func Load(configFile string) (*Config, error) {
	src, err := newSource(configFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	// --- Сервер ---

	// SM_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = src.getInt("SM_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("SM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// SM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(src.getDefault("SM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SM_LOG_LEVEL: %w", err)
	}

	// SM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = src.getDefault("SM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = src.getDuration("SM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = src.getDuration("SM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = src.getDuration("SM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// SM_OPENAPI_VALIDATION — валидация запросов (по умолчанию true)
	cfg.OpenAPIValidation, err = src.getBool("SM_OPENAPI_VALIDATION", true)
	if err != nil {
		return nil, fmt.Errorf("SM_OPENAPI_VALIDATION: %w", err)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = src.getRequired("SM_DB_HOST"); err != nil {
		return nil, err
	}
	cfg.DBPort, err = src.getInt("SM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SM_DB_PORT: %w", err)
	}
	if cfg.DBName, err = src.getRequired("SM_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = src.getRequired("SM_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = src.getRequired("SM_DB_PASSWORD"); err != nil {
		return nil, err
	}

	// SM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = src.getDefault("SM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// SM_DB_MAX_CONNS — размер пула (по умолчанию 10)
	cfg.DBMaxConns, err = src.getInt("SM_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("SM_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return nil, fmt.Errorf("SM_DB_MAX_CONNS: значение %d вне допустимого диапазона 1-200", cfg.DBMaxConns)
	}

	// --- Хранилище CV ---

	// SM_DATA_DIR — каталог файлов CV (по умолчанию ./data/cvs)
	cfg.DataDir = src.getDefault("SM_DATA_DIR", "./data/cvs")

	// SM_UPLOAD_MAX_SIZE — лимит размера файла (по умолчанию 10 МБ)
	maxSize, err := src.getInt("SM_UPLOAD_MAX_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("SM_UPLOAD_MAX_SIZE: %w", err)
	}
	if maxSize < 1 {
		return nil, fmt.Errorf("SM_UPLOAD_MAX_SIZE: значение %d должно быть положительным", maxSize)
	}
	cfg.UploadMaxSize = int64(maxSize)

	// SM_UPLOAD_ALLOWED_EXTENSIONS — допустимые расширения
	for _, ext := range parseCSV(src.getDefault("SM_UPLOAD_ALLOWED_EXTENSIONS", ".pdf,.doc,.docx,.odt,.rtf,.txt")) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.UploadAllowedExtensions = append(cfg.UploadAllowedExtensions, ext)
	}
	if len(cfg.UploadAllowedExtensions) == 0 {
		return nil, errors.New("SM_UPLOAD_ALLOWED_EXTENSIONS: список расширений пуст")
	}

	// --- Извлечение атрибутов ---

	// SM_EXTRACTOR — реализация экстрактора (по умолчанию stub)
	cfg.Extractor = strings.ToLower(src.getDefault("SM_EXTRACTOR", ExtractorStub))
	switch cfg.Extractor {
	case ExtractorStub, ExtractorDocument, ExtractorGemini:
	default:
		return nil, fmt.Errorf("SM_EXTRACTOR: недопустимое значение %q, допустимые: stub, document, gemini", cfg.Extractor)
	}

	cfg.ExtractionTimeout, err = src.getDuration("SM_EXTRACTION_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_EXTRACTION_TIMEOUT: %w", err)
	}

	// SM_EXTRACTION_CACHE_SIZE — размер кэша (по умолчанию 256, 0 — отключён)
	cfg.ExtractionCacheSize, err = src.getInt("SM_EXTRACTION_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("SM_EXTRACTION_CACHE_SIZE: %w", err)
	}
	if cfg.ExtractionCacheSize < 0 {
		return nil, fmt.Errorf("SM_EXTRACTION_CACHE_SIZE: значение %d не может быть отрицательным", cfg.ExtractionCacheSize)
	}

	cfg.ExtractionCacheTTL, err = src.getDuration("SM_EXTRACTION_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SM_EXTRACTION_CACHE_TTL: %w", err)
	}

	cfg.GeminiModel = src.getDefault("SM_GEMINI_MODEL", "gemini-2.5-flash")
	cfg.GeminiAPIKey = src.getDefault("SM_GEMINI_API_KEY", "")
	if cfg.Extractor == ExtractorGemini && cfg.GeminiAPIKey == "" {
		return nil, errors.New("SM_GEMINI_API_KEY: обязательна при SM_EXTRACTOR=gemini")
	}

	// --- Сопоставление ---

	// SM_MATCH_WORKERS — параллелизм массового сопоставления (по умолчанию 4)
	cfg.MatchWorkers, err = src.getInt("SM_MATCH_WORKERS", 4)
	if err != nil {
		return nil, fmt.Errorf("SM_MATCH_WORKERS: %w", err)
	}
	if cfg.MatchWorkers < 1 || cfg.MatchWorkers > 64 {
		return nil, fmt.Errorf("SM_MATCH_WORKERS: значение %d вне допустимого диапазона 1-64", cfg.MatchWorkers)
	}

	// --- Topologymetrics ---

	cfg.DephealthGroup = src.getDefault("SM_DEPHEALTH_GROUP", "skillmatch")
	cfg.DephealthCheckInterval, err = src.getDuration("SM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = src.getDuration("SM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode, c.DBMaxConns,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (используется topologymetrics для меток зависимости).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Источник значений ---

// source читает значения через viper: переменная окружения SM_X_Y
// перекрывает ключ x_y из файла конфигурации.
type source struct {
	v *viper.Viper
}

func newSource(configFile string) (*source, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("чтение файла конфигурации %s: %w", configFile, err)
		}
	}
	return &source{v: v}, nil
}

// lookup возвращает строковое значение по имени переменной окружения.
func (s *source) lookup(key string) string {
	k := strings.ToLower(strings.TrimPrefix(key, envPrefix+"_"))
	return strings.TrimSpace(s.v.GetString(k))
}

// getRequired возвращает значение или ошибку, если оно не задано.
func (s *source) getRequired(key string) (string, error) {
	val := s.lookup(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getDefault возвращает значение или значение по умолчанию.
func (s *source) getDefault(key, defaultVal string) string {
	val := s.lookup(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt возвращает целочисленное значение или значение по умолчанию.
func (s *source) getInt(key string, defaultVal int) (int, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getBool возвращает логическое значение или значение по умолчанию.
func (s *source) getBool(key string, defaultVal bool) (bool, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getDuration возвращает time.Duration или значение по умолчанию.
func (s *source) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := s.lookup(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// handler.go — основной обработчик API. Объединяет доменные обработчики
// и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/skillmatch/internal/api/errors"
	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/service"
)

// CVUploadService — операции над загрузками CV.
type CVUploadService interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (*model.CVUpload, error)
	List(ctx context.Context, params model.ListParams) ([]*model.CVUpload, int, error)
	Get(ctx context.Context, id string) (*model.CVUpload, error)
	Open(ctx context.Context, id string) (*model.CVUpload, io.ReadSeekCloser, error)
	Delete(ctx context.Context, id string) error
}

// CandidateService — операции над кандидатами.
type CandidateService interface {
	List(ctx context.Context, filter model.CandidateFilter, params model.ListParams) ([]*model.Candidate, int, error)
	Get(ctx context.Context, id string) (*model.Candidate, error)
	Patch(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error)
}

// JobService — операции над вакансиями.
type JobService interface {
	Create(ctx context.Context, title string, requirements []string, status model.Status) (*model.Job, error)
	List(ctx context.Context, filter model.JobFilter, params model.ListParams) ([]*model.Job, int, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Update(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error)
	Delete(ctx context.Context, id string) error
}

// MatchService — чтение и экспорт сопоставлений.
type MatchService interface {
	List(ctx context.Context, filter model.MatchFilter, params model.ListParams) ([]*model.MatchDetail, int, error)
	Get(ctx context.Context, id string) (*service.MatchView, error)
	Export(ctx context.Context, w io.Writer, filter model.MatchFilter, sort string) error
}

// Reconciler — разбор CV и сопоставление пары.
type Reconciler interface {
	Parse(ctx context.Context, cvUploadID string) (*model.Candidate, model.UpsertResult, error)
	Match(ctx context.Context, candidateID, jobID string, recalculate bool) (*model.Match, model.UpsertResult, error)
}

// BulkMatcher — массовое сопоставление.
type BulkMatcher interface {
	MatchAll(ctx context.Context) (*service.MatchAllResult, error)
}

// APIHandler — основной обработчик API SkillMatch.
type APIHandler struct {
	health     *HealthHandler
	cvUploads  CVUploadService
	candidates CandidateService
	jobs       JobService
	matches    MatchService
	reconcile  Reconciler
	bulk       BulkMatcher
	// maxUploadSize — лимит тела multipart-запроса загрузки
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	cvUploads CVUploadService,
	candidates CandidateService,
	jobs JobService,
	matches MatchService,
	reconcile Reconciler,
	bulk BulkMatcher,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		cvUploads:     cvUploads,
		candidates:    candidates,
		jobs:          jobs,
		matches:       matches,
		reconcile:     reconcile,
		bulk:          bulk,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует все маршруты API в router.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.yaml", h.health.GetOpenAPI)

		r.Route("/cv-uploads", func(r chi.Router) {
			r.Get("/", h.ListCVUploads)
			r.Post("/", h.UploadCV)
			r.Get("/{id}", h.GetCVUpload)
			r.Delete("/{id}", h.DeleteCVUpload)
			r.Get("/{id}/file", h.DownloadCVFile)
			r.Post("/{id}/parse", h.ParseCV)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", h.ListCandidates)
			r.Get("/{id}", h.GetCandidate)
			r.Patch("/{id}", h.PatchCandidate)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.CreateJob)
			r.Get("/{id}", h.GetJob)
			r.Put("/{id}", h.ReplaceJob)
			r.Patch("/{id}", h.PatchJob)
			r.Delete("/{id}", h.DeleteJob)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ListMatches)
			r.Get("/export", h.ExportMatches)
			r.Post("/create-match", h.CreateMatch)
			r.Post("/match-candidates", h.MatchCandidates)
			r.Get("/{id}", h.GetMatch)
		})
	})
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationDefaults нормализует параметры пагинации.
// Возвращает корректные limit и offset.
func paginationDefaults(limit *int, offset *int) (int, int) {
	l := 100
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}

// listParams — общие параметры постраничных списков.
type listParams struct {
	Limit  *int
	Offset *int
	Sort   *string
}

// bindListParams читает limit, offset и sort из query.
func bindListParams(r *http.Request) (model.ListParams, error) {
	var p listParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		return model.ListParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &p.Offset); err != nil {
		return model.ListParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "sort", q, &p.Sort); err != nil {
		return model.ListParams{}, err
	}

	limit, offset := paginationDefaults(p.Limit, p.Offset)
	params := model.ListParams{Limit: limit, Offset: offset}
	if p.Sort != nil {
		params.Sort = *p.Sort
	}
	return params, nil
}

// bindStatus читает необязательный фильтр status.
func bindStatus(r *http.Request) (*model.Status, error) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &raw); err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	s, err := model.ParseStatus(*raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// bindSearch читает необязательный параметр search.
func bindSearch(r *http.Request) (string, error) {
	var search *string
	if err := runtime.BindQueryParameter("form", true, false, "search", r.URL.Query(), &search); err != nil {
		return "", err
	}
	if search == nil {
		return "", nil
	}
	return *search, nil
}

// pathID читает UUID из параметра пути {id}.
func pathID(r *http.Request) (string, error) {
	var id types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// decodeJSON разбирает тело запроса в v, отклоняя неизвестные поля.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// Внутренние ошибки логируются, клиенту возвращается общее сообщение op.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrExtraction):
		apierrors.ExtractionError(w, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), op,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, op)
	}
}

// formatTime форматирует время в RFC 3339 UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// matches.go — обработчики /api/v1/matches endpoints.
// Сопоставление пары, массовое сопоставление, список, получение, экспорт.
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/skillmatch/internal/api/errors"
	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/export"
)

// Сообщения create-match для существующего сопоставления.
const (
	msgMatchUpdated  = "Match already existed and was updated"
	msgMatchExisting = "Match already existed"
)

// createMatchRequest — тело POST /matches/create-match.
type createMatchRequest struct {
	CandidateID types.UUID `json:"candidate_id"`
	JobID       types.UUID `json:"job_id"`
	// Recalculate — пересчитать оценку существующего сопоставления (по умолчанию true)
	Recalculate *bool `json:"recalculate"`
}

// CreateMatch — POST /api/v1/matches/create-match.
// 201 — сопоставление создано, 200 — уже существовало.
func (h *APIHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.CandidateID == (types.UUID{}) || req.JobID == (types.UUID{}) {
		apierrors.ValidationError(w, "Поля candidate_id и job_id обязательны")
		return
	}
	recalculate := req.Recalculate == nil || *req.Recalculate

	m, result, err := h.reconcile.Match(r.Context(), req.CandidateID.String(), req.JobID.String(), recalculate)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка сопоставления кандидата с вакансией")
		return
	}

	if result == model.ResultCreated {
		writeJSON(w, http.StatusCreated, mapMatchResult(m, result, ""))
		return
	}
	msg := msgMatchExisting
	if recalculate {
		msg = msgMatchUpdated
	}
	writeJSON(w, http.StatusOK, mapMatchResult(m, result, msg))
}

// MatchCandidates — POST /api/v1/matches/match-candidates.
// 201 — создано хотя бы одно новое сопоставление, иначе 200.
func (h *APIHandler) MatchCandidates(w http.ResponseWriter, r *http.Request) {
	res, err := h.bulk.MatchAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка массового сопоставления")
		return
	}

	status := http.StatusOK
	if res.Created > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, bulkMatchResponse{
		Message: fmt.Sprintf("Created %d new matches, updated %d existing matches",
			res.Created, res.Updated),
		Candidates:     res.Candidates,
		Jobs:           res.Jobs,
		MatchesCreated: res.Created,
		MatchesUpdated: res.Updated,
		MatchesFailed:  res.Failed,
		Failures:       res.Failures,
		DurationMs:     res.Duration.Milliseconds(),
	})
}

// ListMatches — GET /api/v1/matches.
// Фильтры: candidate_id, job_id, min_score.
func (h *APIHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	filter, err := bindMatchFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	items, total, err := h.matches.List(r.Context(), filter, params)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения списка сопоставлений")
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(items, total, params, mapMatchListItem))
}

// GetMatch — GET /api/v1/matches/{id}.
func (h *APIHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	v, err := h.matches.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения сопоставления")
		return
	}

	writeJSON(w, http.StatusOK, mapMatchView(v))
}

// ExportMatches — GET /api/v1/matches/export.
// Книга формируется в памяти, чтобы ошибка вернулась в формате JSON.
func (h *APIHandler) ExportMatches(w http.ResponseWriter, r *http.Request) {
	filter, err := bindMatchFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	var sort *string
	if err := runtime.BindQueryParameter("form", true, false, "sort", r.URL.Query(), &sort); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	sortKey := ""
	if sort != nil {
		sortKey = *sort
	}

	var buf bytes.Buffer
	if err := h.matches.Export(r.Context(), &buf, filter, sortKey); err != nil {
		h.writeServiceError(w, r, err, "Ошибка экспорта сопоставлений")
		return
	}

	filename := "matches-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Ошибка отправки XLSX", slog.String("error", err.Error()))
	}
}

// bindMatchFilter читает фильтры candidate_id, job_id, min_score.
func bindMatchFilter(r *http.Request) (model.MatchFilter, error) {
	var (
		candidateID *types.UUID
		jobID       *types.UUID
		minScore    *float64
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "candidate_id", q, &candidateID); err != nil {
		return model.MatchFilter{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "job_id", q, &jobID); err != nil {
		return model.MatchFilter{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_score", q, &minScore); err != nil {
		return model.MatchFilter{}, err
	}

	filter := model.MatchFilter{MinScore: minScore}
	if candidateID != nil {
		filter.CandidateID = candidateID.String()
	}
	if jobID != nil {
		filter.JobID = jobID.String()
	}
	return filter, nil
}

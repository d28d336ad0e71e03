// jobs.go — обработчики /api/v1/jobs endpoints.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/skillmatch/internal/api/errors"
	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// jobRequest — тело POST /jobs и PUT /jobs/{id}.
type jobRequest struct {
	Title        string       `json:"title"`
	Requirements []string     `json:"requirements"`
	Status       model.Status `json:"status"`
}

// jobPatchRequest — тело PATCH /jobs/{id}.
type jobPatchRequest struct {
	Title        *string       `json:"title"`
	Requirements *[]string     `json:"requirements"`
	Status       *model.Status `json:"status"`
}

// CreateJob — POST /api/v1/jobs.
func (h *APIHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	j, err := h.jobs.Create(r.Context(), req.Title, req.Requirements, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка создания вакансии")
		return
	}

	writeJSON(w, http.StatusCreated, mapJob(j))
}

// ListJobs — GET /api/v1/jobs.
// Фильтры: search (название), status.
func (h *APIHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	search, err := bindSearch(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	status, err := bindStatus(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	items, total, err := h.jobs.List(r.Context(), model.JobFilter{Search: search, Status: status}, params)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения списка вакансий")
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(items, total, params, mapJob))
}

// GetJob — GET /api/v1/jobs/{id}.
func (h *APIHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	j, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения вакансии")
		return
	}

	writeJSON(w, http.StatusOK, mapJob(j))
}

// ReplaceJob — PUT /api/v1/jobs/{id}. Полная замена: отсутствующие
// requirements и status сбрасываются в пустой список и active.
func (h *APIHandler) ReplaceJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.Requirements == nil {
		req.Requirements = []string{}
	}
	if req.Status == "" {
		req.Status = model.StatusActive
	}

	j, err := h.jobs.Update(r.Context(), id, model.JobPatch{
		Title:        &req.Title,
		Requirements: &req.Requirements,
		Status:       &req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка обновления вакансии")
		return
	}

	writeJSON(w, http.StatusOK, mapJob(j))
}

// PatchJob — PATCH /api/v1/jobs/{id}.
func (h *APIHandler) PatchJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req jobPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	j, err := h.jobs.Update(r.Context(), id, model.JobPatch{
		Title:        req.Title,
		Requirements: req.Requirements,
		Status:       req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка обновления вакансии")
		return
	}

	writeJSON(w, http.StatusOK, mapJob(j))
}

// DeleteJob — DELETE /api/v1/jobs/{id}.
func (h *APIHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.jobs.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Ошибка удаления вакансии")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

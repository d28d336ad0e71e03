// candidates.go — обработчики /api/v1/candidates endpoints.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/skillmatch/internal/api/errors"
	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// candidatePatchRequest — тело PATCH /candidates/{id}.
type candidatePatchRequest struct {
	Email  *string       `json:"email"`
	Phone  *string       `json:"phone"`
	Status *model.Status `json:"status"`
}

// ListCandidates — GET /api/v1/candidates.
// Фильтры: search (имя или навык), status.
func (h *APIHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
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

	filter := model.CandidateFilter{Search: search, Status: status}
	items, total, err := h.candidates.List(r.Context(), filter, params)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения списка кандидатов")
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(items, total, params, mapCandidate))
}

// GetCandidate — GET /api/v1/candidates/{id}.
func (h *APIHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	c, err := h.candidates.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения кандидата")
		return
	}

	writeJSON(w, http.StatusOK, mapCandidate(c))
}

// PatchCandidate — PATCH /api/v1/candidates/{id}.
// Изменяемые поля: email, phone, status.
func (h *APIHandler) PatchCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var req candidatePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	c, err := h.candidates.Patch(r.Context(), id, model.CandidatePatch{
		Email:  req.Email,
		Phone:  req.Phone,
		Status: req.Status,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка обновления кандидата")
		return
	}

	writeJSON(w, http.StatusOK, mapCandidate(c))
}

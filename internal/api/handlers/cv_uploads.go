// cv_uploads.go — обработчики /api/v1/cv-uploads endpoints.
// Загрузка файла CV, список, получение, скачивание, удаление и разбор.
package handlers

import (
	"errors"
	"mime"
	"net/http"

	apierrors "github.com/bigkaa/skillmatch/internal/api/errors"
	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// multipartOverhead — запас на заголовки multipart сверх лимита файла.
const multipartOverhead = 1 << 20

// UploadCV — POST /api/v1/cv-uploads (multipart, поле file).
func (h *APIHandler) UploadCV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.ValidationError(w, "Превышен допустимый размер файла")
			return
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data с полем file")
		return
	}
	defer file.Close()

	u, err := h.cvUploads.Upload(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка загрузки CV")
		return
	}

	writeJSON(w, http.StatusCreated, mapCVUpload(u))
}

// ListCVUploads — GET /api/v1/cv-uploads.
func (h *APIHandler) ListCVUploads(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	items, total, err := h.cvUploads.List(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения списка загрузок CV")
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(items, total, params, mapCVUpload))
}

// GetCVUpload — GET /api/v1/cv-uploads/{id}.
func (h *APIHandler) GetCVUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	u, err := h.cvUploads.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка получения загрузки CV")
		return
	}

	writeJSON(w, http.StatusOK, mapCVUpload(u))
}

// DownloadCVFile — GET /api/v1/cv-uploads/{id}/file.
// Поддерживает Range и условные запросы через http.ServeContent.
func (h *APIHandler) DownloadCVFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	u, f, err := h.cvUploads.Open(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка чтения файла CV")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", u.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": u.OriginalFilename}))
	w.Header().Set("ETag", `"`+u.Checksum+`"`)
	http.ServeContent(w, r, u.OriginalFilename, u.UploadedAt, f)
}

// DeleteCVUpload — DELETE /api/v1/cv-uploads/{id}.
func (h *APIHandler) DeleteCVUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.cvUploads.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Ошибка удаления загрузки CV")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ParseCV — POST /api/v1/cv-uploads/{id}/parse.
// 201 — кандидат создан, 200 — существующий кандидат обновлён.
func (h *APIHandler) ParseCV(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	c, result, err := h.reconcile.Parse(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Ошибка разбора CV")
		return
	}

	status := http.StatusOK
	if result == model.ResultCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, parseResponse{candidateResponse: mapCandidate(c), Result: result})
}

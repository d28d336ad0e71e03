// responses.go — типизированные ответы API и маппинг доменных моделей.
package handlers

import (
	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/service"
)

// listResponse — страница списка.
type listResponse[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func newListResponse[S any, T any](items []S, total int, params model.ListParams, mapFn func(S) T) listResponse[T] {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, mapFn(it))
	}
	return listResponse[T]{
		Items:   out,
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: params.Offset+len(out) < total,
	}
}

type cvUploadResponse struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	Checksum         string `json:"checksum"`
	UploadedAt       string `json:"uploaded_at"`
	FileURL          string `json:"file_url"`
}

func mapCVUpload(u *model.CVUpload) cvUploadResponse {
	return cvUploadResponse{
		ID:               u.ID,
		OriginalFilename: u.OriginalFilename,
		ContentType:      u.ContentType,
		Size:             u.Size,
		Checksum:         u.Checksum,
		UploadedAt:       formatTime(u.UploadedAt),
		FileURL:          "/api/v1/cv-uploads/" + u.ID + "/file",
	}
}

type candidateResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Skills          []string     `json:"skills"`
	ExperienceYears int          `json:"experience_years"`
	SourceCVID      string       `json:"source_cv_id"`
	Status          model.Status `json:"status"`
	ParsedAt        string       `json:"parsed_at"`
	UpdatedAt       string       `json:"updated_at"`
}

func mapCandidate(c *model.Candidate) candidateResponse {
	skills := c.Skills
	if skills == nil {
		skills = []string{}
	}
	return candidateResponse{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Skills:          skills,
		ExperienceYears: c.ExperienceYears,
		SourceCVID:      c.SourceCVID,
		Status:          c.Status,
		ParsedAt:        formatTime(c.ParsedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

// parseResponse — кандидат и результат разбора (created/updated).
type parseResponse struct {
	candidateResponse
	Result model.UpsertResult `json:"result"`
}

type jobResponse struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Requirements []string     `json:"requirements"`
	Status       model.Status `json:"status"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

func mapJob(j *model.Job) jobResponse {
	reqs := j.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	return jobResponse{
		ID:           j.ID,
		Title:        j.Title,
		Requirements: reqs,
		Status:       j.Status,
		CreatedAt:    formatTime(j.CreatedAt),
		UpdatedAt:    formatTime(j.UpdatedAt),
	}
}

// matchListItem — компактное представление сопоставления в списке.
type matchListItem struct {
	ID            string  `json:"id"`
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	JobID         string  `json:"job_id"`
	JobTitle      string  `json:"job_title"`
	Score         float64 `json:"score"`
	MatchedAt     string  `json:"matched_at"`
}

func mapMatchListItem(m *model.MatchDetail) matchListItem {
	return matchListItem{
		ID:            m.ID,
		CandidateID:   m.CandidateID,
		CandidateName: m.CandidateName,
		JobID:         m.JobID,
		JobTitle:      m.JobTitle,
		Score:         m.Score,
		MatchedAt:     formatTime(m.MatchedAt),
	}
}

// matchDetailResponse — сопоставление с вложенными кандидатом и вакансией.
type matchDetailResponse struct {
	ID        string            `json:"id"`
	Candidate candidateResponse `json:"candidate"`
	Job       jobResponse       `json:"job"`
	Score     float64           `json:"score"`
	Rationale string            `json:"rationale"`
	MatchedAt string            `json:"matched_at"`
	UpdatedAt string            `json:"updated_at"`
}

func mapMatchView(v *service.MatchView) matchDetailResponse {
	return matchDetailResponse{
		ID:        v.Match.ID,
		Candidate: mapCandidate(v.Candidate),
		Job:       mapJob(v.Job),
		Score:     v.Match.Score,
		Rationale: v.Match.Rationale,
		MatchedAt: formatTime(v.Match.MatchedAt),
		UpdatedAt: formatTime(v.Match.UpdatedAt),
	}
}

// matchResultResponse — ответ create-match.
type matchResultResponse struct {
	ID          string             `json:"id"`
	CandidateID string             `json:"candidate_id"`
	JobID       string             `json:"job_id"`
	Score       float64            `json:"score"`
	Rationale   string             `json:"rationale"`
	MatchedAt   string             `json:"matched_at"`
	UpdatedAt   string             `json:"updated_at"`
	Result      model.UpsertResult `json:"result"`
	Message     string             `json:"message,omitempty"`
}

func mapMatchResult(m *model.Match, result model.UpsertResult, message string) matchResultResponse {
	return matchResultResponse{
		ID:          m.ID,
		CandidateID: m.CandidateID,
		JobID:       m.JobID,
		Score:       m.Score,
		Rationale:   m.Rationale,
		MatchedAt:   formatTime(m.MatchedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
		Result:      result,
		Message:     message,
	}
}

// bulkMatchResponse — ответ match-candidates.
type bulkMatchResponse struct {
	Message        string                `json:"message"`
	Candidates     int                   `json:"candidates"`
	Jobs           int                   `json:"jobs"`
	MatchesCreated int                   `json:"matches_created"`
	MatchesUpdated int                   `json:"matches_updated"`
	MatchesFailed  int                   `json:"matches_failed"`
	Failures       []service.PairFailure `json:"failures"`
	DurationMs     int64                 `json:"duration_ms"`
}

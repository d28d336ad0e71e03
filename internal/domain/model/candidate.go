package model

import "time"

// Candidate — структурированный профиль кандидата, полученный разбором CV.
// На каждый CVUpload приходится не более одного кандидата.
type Candidate struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Skills          []string
	ExperienceYears int
	// SourceCVID — UUID исходного CVUpload (уникален)
	SourceCVID string
	Status     Status
	// ParsedAt — время первого разбора
	ParsedAt  time.Time
	UpdatedAt time.Time
}

// CandidateAttributes — атрибуты, извлечённые из CV.
type CandidateAttributes struct {
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
}

// CandidatePatch — частичное обновление кандидата.
// nil-поля не изменяются.
type CandidatePatch struct {
	Email  *string
	Phone  *string
	Status *Status
}

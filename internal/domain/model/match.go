package model

import "time"

// Match — результат сопоставления кандидата и вакансии.
// Пара (CandidateID, JobID) уникальна.
type Match struct {
	ID          string
	CandidateID string
	JobID       string
	// Score — оценка 0..100
	Score     float64
	Rationale string
	MatchedAt time.Time
	UpdatedAt time.Time
}

// MatchDetail — сопоставление с именем кандидата и названием вакансии
// (для списков и экспорта).
type MatchDetail struct {
	Match
	CandidateName string
	JobTitle      string
}

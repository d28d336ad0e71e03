package model

import "time"

// Job — вакансия с перечнем требуемых навыков.
type Job struct {
	ID           string
	Title        string
	Requirements []string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobPatch — частичное обновление вакансии. nil-поля не изменяются.
type JobPatch struct {
	Title        *string
	Requirements *[]string
	Status       *Status
}

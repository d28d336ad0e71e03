package model

// ListParams — общие параметры постраничной выборки.
type ListParams struct {
	Limit  int
	Offset int
	// Sort — ключ сортировки: имя поля, "-" в начале означает DESC
	Sort string
}

// CandidateFilter — фильтры списка кандидатов.
type CandidateFilter struct {
	// Search — подстрока в имени или любом навыке (без учёта регистра)
	Search string
	Status *Status
}

// JobFilter — фильтры списка вакансий.
type JobFilter struct {
	// Search — подстрока в названии или любом требовании
	Search string
	Status *Status
}

// MatchFilter — фильтры списка сопоставлений.
type MatchFilter struct {
	CandidateID string
	JobID       string
	MinScore    *float64
}

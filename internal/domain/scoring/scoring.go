// Пакет scoring — детерминированная оценка соответствия кандидата вакансии.
// Оценка = 100 * |навыки ∩ требования| / |требования|, 0 при пустых требованиях.
// Навыки и требования рассматриваются как множества, сравнение
// чувствительно к регистру, порядок элементов на результат не влияет.
package scoring

import "fmt"

// MaxScore — верхняя граница оценки.
const MaxScore = 100.0

// Result — результат оценки пары кандидат/вакансия.
type Result struct {
	// Score — оценка в диапазоне [0, 100]
	Score float64
	// Matched — число совпавших требований
	Matched int
	// Required — число различных требований
	Required int
	// MatchedSkills — совпавшие требования в порядке их перечисления в вакансии
	MatchedSkills []string
	// Rationale — текстовое обоснование оценки
	Rationale string
}

// Score вычисляет оценку соответствия навыков кандидата требованиям вакансии.
func Score(skills, requirements []string) Result {
	skillSet := toSet(skills)

	seen := make(map[string]struct{}, len(requirements))
	matched := make([]string, 0, len(requirements))
	for _, req := range requirements {
		if _, dup := seen[req]; dup {
			continue
		}
		seen[req] = struct{}{}
		if _, ok := skillSet[req]; ok {
			matched = append(matched, req)
		}
	}

	res := Result{
		Matched:       len(matched),
		Required:      len(seen),
		MatchedSkills: matched,
	}
	if res.Required > 0 {
		res.Score = min(MaxScore*float64(res.Matched)/float64(res.Required), MaxScore)
	}
	res.Rationale = Rationale(res.Matched, res.Required)
	return res
}

// Rationale формирует обоснование вида "Candidate has k of n required skills.".
func Rationale(matched, required int) string {
	return fmt.Sprintf("Candidate has %d of %d required skills.", matched, required)
}

// toSet преобразует срез строк в множество.
func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

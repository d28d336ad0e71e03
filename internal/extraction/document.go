package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// DefaultSkills — словарь навыков, распознаваемых DocumentExtractor.
var DefaultSkills = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#",
	"Django", "Flask", "FastAPI", "React", "Vue", "Angular", "Node.js",
	"Docker", "Kubernetes", "Terraform", "Ansible",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "RabbitMQ",
	"AWS", "Azure", "GCP", "GraphQL", "REST", "gRPC", "Microservices",
	"Git", "CI/CD", "Linux", "Machine Learning", "AI", "Data Science",
	"DevOps", "SQL", "Leadership",
}

// experienceRe находит упоминания стажа: "5 years", "7+ yrs", "10 лет".
var experienceRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?|лет|года?)\b`)

// DocumentExtractor извлекает текст документа и ищет в нём навыки по словарю.
// Имя — первая непустая строка документа, опыт — наибольшее упоминание лет.
type DocumentExtractor struct {
	skills   []string
	patterns []*regexp.Regexp
}

// NewDocumentExtractor создаёт экстрактор со словарём skills
// (nil — DefaultSkills).
func NewDocumentExtractor(skills []string) *DocumentExtractor {
	if skills == nil {
		skills = DefaultSkills
	}
	patterns := make([]*regexp.Regexp, len(skills))
	for i, s := range skills {
		// Границы слова с учётом символов + и #, входящих в названия навыков
		patterns[i] = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}+#])` + regexp.QuoteMeta(s) + `(?:$|[^\p{L}\p{N}+#])`)
	}
	return &DocumentExtractor{skills: skills, patterns: patterns}
}

// Name возвращает имя реализации.
func (e *DocumentExtractor) Name() string { return "document" }

// Extract извлекает атрибуты кандидата из текста документа.
func (e *DocumentExtractor) Extract(ctx context.Context, doc Document) (*model.CandidateAttributes, error) {
	text, err := readText(doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return e.extractFromText(text), nil
}

func (e *DocumentExtractor) extractFromText(text string) *model.CandidateAttributes {
	attrs := &model.CandidateAttributes{Skills: []string{}}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			attrs.Name = line
			break
		}
	}

	for i, p := range e.patterns {
		if p.MatchString(text) {
			attrs.Skills = append(attrs.Skills, e.skills[i])
		}
	}

	for _, m := range experienceRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= MaxExperienceYears && n > attrs.ExperienceYears {
			attrs.ExperienceYears = n
		}
	}

	return attrs
}

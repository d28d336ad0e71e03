package openapi

import (
	"context"
	"testing"

	"github.com/bigkaa/skillmatch/internal/repository"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load ошибка: %v", err)
	}

	for _, path := range []string{
		"/api/v1/cv-uploads",
		"/api/v1/cv-uploads/{id}/parse",
		"/api/v1/candidates/{id}",
		"/api/v1/jobs/{id}",
		"/api/v1/matches/create-match",
		"/api/v1/matches/match-candidates",
		"/api/v1/matches/export",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("путь %s отсутствует в контракте", path)
		}
	}
	if len(doc.Servers) != 0 {
		t.Error("контракт не должен объявлять servers: пути сопоставляются целиком")
	}
}

// TestLoad_SortEnumsMatchRepository проверяет, что значения sort в контракте
// совпадают с белыми списками сортировки репозиториев.
func TestLoad_SortEnumsMatchRepository(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load ошибка: %v", err)
	}

	tests := []struct {
		path string
		keys repository.SortKeys
	}{
		{"/api/v1/cv-uploads", repository.CVUploadSortKeys},
		{"/api/v1/candidates", repository.CandidateSortKeys},
		{"/api/v1/jobs", repository.JobSortKeys},
		{"/api/v1/matches", repository.MatchSortKeys},
		{"/api/v1/matches/export", repository.MatchSortKeys},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			item := doc.Paths.Find(tt.path)
			if item == nil || item.Get == nil {
				t.Fatalf("GET %s отсутствует в контракте", tt.path)
			}
			param := item.Get.Parameters.GetByInAndName("query", "sort")
			if param == nil || param.Schema == nil || param.Schema.Value == nil {
				t.Fatalf("GET %s: параметр sort не объявлен", tt.path)
			}

			enum := make(map[string]struct{}, len(param.Schema.Value.Enum))
			for _, v := range param.Schema.Value.Enum {
				s, ok := v.(string)
				if !ok {
					t.Fatalf("значение enum %v не строка", v)
				}
				enum[s] = struct{}{}
				if _, ok := tt.keys[s]; !ok {
					t.Errorf("sort=%q объявлен в контракте, но не поддерживается репозиторием", s)
				}
			}
			for key := range tt.keys {
				if _, ok := enum[key]; !ok {
					t.Errorf("sort=%q поддерживается репозиторием, но отсутствует в контракте", key)
				}
			}
		})
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/export"
	"github.com/bigkaa/skillmatch/internal/storage/filestore"
)

var allowedExt = []string{".pdf", ".docx", ".txt"}

func newUploadService(t *testing.T, d *memData) (*CVUploadService, *filestore.FileStore) {
	t.Helper()
	fs, err := filestore.New(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	return NewCVUploadService(&memUploads{d}, fs, allowedExt, testLogger()), fs
}

// --- CVUploadService ---

func TestCVUploadService_UploadGetDelete(t *testing.T) {
	d := newMemData()
	svc, fs := newUploadService(t, d)
	ctx := context.Background()

	u, err := svc.Upload(ctx, strings.NewReader("Jane Doe\nPython"), "Jane CV.TXT", "text/plain")
	if err != nil {
		t.Fatalf("Upload ошибка: %v", err)
	}
	if u.Size != 15 {
		t.Errorf("Size = %d, ожидалось 15", u.Size)
	}
	if u.OriginalFilename != "Jane CV.TXT" || u.Checksum == "" {
		t.Errorf("неожиданная загрузка: %+v", u)
	}

	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get ошибка: %v", err)
	}
	if got.FilePath != u.FilePath {
		t.Errorf("FilePath = %q, ожидался %q", got.FilePath, u.FilePath)
	}

	_, f, err := svc.Open(ctx, u.ID)
	if err != nil {
		t.Fatalf("Open ошибка: %v", err)
	}
	data, _ := io.ReadAll(f)
	_ = f.Close()
	if string(data) != "Jane Doe\nPython" {
		t.Errorf("содержимое = %q", data)
	}

	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}
	if _, err := os.Stat(fs.FullPath(u.FilePath)); !os.IsNotExist(err) {
		t.Errorf("файл не удалён: %v", err)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestCVUploadService_UploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
	}{
		{name: "недопустимое расширение", content: "x", filename: "virus.exe"},
		{name: "без расширения", content: "x", filename: "README"},
		{name: "пустое имя", content: "x", filename: "  "},
		{name: "пустой файл", content: "", filename: "cv.pdf"},
		{name: "превышен размер", content: strings.Repeat("a", 2048), filename: "cv.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newMemData()
			svc, fs := newUploadService(t, d)

			_, err := svc.Upload(context.Background(), strings.NewReader(tt.content), tt.filename, "")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ожидалась ErrValidation, получено: %v", err)
			}
			if len(d.uploads) != 0 {
				t.Error("запись загрузки создана")
			}
			entries, _ := os.ReadDir(fs.DataDir())
			for _, e := range entries {
				if !strings.HasPrefix(e.Name(), ".") {
					t.Errorf("в хранилище остался файл %s", filepath.Join(fs.DataDir(), e.Name()))
				}
			}
		})
	}
}

func TestCVUploadService_List(t *testing.T) {
	d := newMemData()
	svc, _ := newUploadService(t, d)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, err := svc.Upload(ctx, strings.NewReader("cv"), name, "text/plain"); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}

	items, total, err := svc.List(ctx, model.ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Errorf("total=%d items=%d, ожидалось 3/2", total, len(items))
	}

	if _, _, err := svc.List(ctx, model.ListParams{Sort: "checksum"}); !errors.Is(err, ErrValidation) {
		t.Errorf("недопустимая сортировка: ожидалась ErrValidation, получено: %v", err)
	}
}

// --- CandidateService ---

func TestCandidateService_Patch(t *testing.T) {
	d := newMemData()
	c := seedCandidate(d, "Jane Doe", "Go")
	svc := NewCandidateService(&memCandidates{d}, testLogger())
	ctx := context.Background()

	email := " jane@example.com "
	inactive := model.StatusInactive
	got, err := svc.Patch(ctx, c.ID, model.CandidatePatch{Email: &email, Status: &inactive})
	if err != nil {
		t.Fatalf("Patch ошибка: %v", err)
	}
	if got.Email != "jane@example.com" || got.Status != model.StatusInactive {
		t.Errorf("email=%q status=%q", got.Email, got.Status)
	}

	bad := model.Status("archived")
	if _, err := svc.Patch(ctx, c.ID, model.CandidatePatch{Status: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("недопустимый статус: ожидалась ErrValidation, получено: %v", err)
	}
	badEmail := "not-an-email"
	if _, err := svc.Patch(ctx, c.ID, model.CandidatePatch{Email: &badEmail}); !errors.Is(err, ErrValidation) {
		t.Errorf("некорректный email: ожидалась ErrValidation, получено: %v", err)
	}
	if _, err := svc.Patch(ctx, uuid.New().String(), model.CandidatePatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("неизвестный кандидат: ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestCandidateService_ListSearch(t *testing.T) {
	d := newMemData()
	seedCandidate(d, "Jane Doe", "Python", "Django")
	seedCandidate(d, "John Smith", "Go")
	svc := NewCandidateService(&memCandidates{d}, testLogger())

	items, total, err := svc.List(context.Background(), model.CandidateFilter{Search: " django "}, model.ListParams{Limit: 10})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Name != "Jane Doe" {
		t.Errorf("ожидался только Jane Doe, получено total=%d items=%v", total, items)
	}
}

// --- JobService ---

func TestJobService_CRUD(t *testing.T) {
	d := newMemData()
	svc := NewJobService(&memJobs{d}, d, testLogger())
	ctx := context.Background()

	j, err := svc.Create(ctx, "  Backend Developer ", []string{"Go", " ", "PostgreSQL "}, "")
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
	if j.Title != "Backend Developer" || j.Status != model.StatusActive {
		t.Errorf("title=%q status=%q", j.Title, j.Status)
	}
	if strings.Join(j.Requirements, ",") != "Go,PostgreSQL" {
		t.Errorf("Requirements = %v", j.Requirements)
	}

	title := "Senior Backend Developer"
	updated, err := svc.Update(ctx, j.ID, model.JobPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update ошибка: %v", err)
	}
	if updated.Title != title || len(updated.Requirements) != 2 {
		t.Errorf("после PATCH: %+v", updated)
	}
	if d.txCount != 1 || d.jobLockCalls != 1 {
		t.Errorf("PATCH: транзакций %d, блокировок строки %d, ожидалось 1 и 1", d.txCount, d.jobLockCalls)
	}

	empty := "   "
	if _, err := svc.Update(ctx, j.ID, model.JobPatch{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Errorf("пустое название: ожидалась ErrValidation, получено: %v", err)
	}

	if err := svc.Delete(ctx, j.ID); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}
	if _, err := svc.Get(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ErrNotFound, получено: %v", err)
	}
	if err := svc.Delete(ctx, j.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторное удаление: ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestJobService_CreateValidation(t *testing.T) {
	d := newMemData()
	svc := NewJobService(&memJobs{d}, d, testLogger())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", nil, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("пустое название: ожидалась ErrValidation, получено: %v", err)
	}
	if _, err := svc.Create(ctx, "Backend", nil, model.Status("paused")); !errors.Is(err, ErrValidation) {
		t.Errorf("недопустимый статус: ожидалась ErrValidation, получено: %v", err)
	}
	j, err := svc.Create(ctx, "Backend", nil, model.StatusInactive)
	if err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
	if j.Requirements == nil {
		t.Error("Requirements = nil, ожидался пустой срез")
	}
}

// --- MatchService ---

func TestMatchService_GetAndExport(t *testing.T) {
	d := newMemData()
	c := seedCandidate(d, "Jane Doe", "Go")
	j := seedJob(d, "Backend", "Go", "SQL")
	rec := newReconcile(d, &mockExtractor{attrs: stubAttrs()})
	ctx := context.Background()

	m, _, err := rec.Match(ctx, c.ID, j.ID, true)
	if err != nil {
		t.Fatalf("Match ошибка: %v", err)
	}

	svc := NewMatchService(&memMatches{d}, &memCandidates{d}, &memJobs{d}, testLogger())

	view, err := svc.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get ошибка: %v", err)
	}
	if view.Candidate.Name != "Jane Doe" || view.Job.Title != "Backend" || view.Match.Score != 50 {
		t.Errorf("неожиданное представление: %+v", view)
	}

	if _, err := svc.Get(ctx, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf, model.MatchFilter{}, ""); err != nil {
		t.Fatalf("Export ошибка: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.MatchesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("строк = %d, ожидалось 2 (заголовок + 1)", len(rows))
	}
}

func TestMatchService_ListFilterValidation(t *testing.T) {
	d := newMemData()
	svc := NewMatchService(&memMatches{d}, &memCandidates{d}, &memJobs{d}, testLogger())
	ctx := context.Background()

	if _, _, err := svc.List(ctx, model.MatchFilter{CandidateID: "bad"}, model.ListParams{}); !errors.Is(err, ErrValidation) {
		t.Errorf("candidate_id: ожидалась ErrValidation, получено: %v", err)
	}
	over := 101.0
	if _, _, err := svc.List(ctx, model.MatchFilter{MinScore: &over}, model.ListParams{}); !errors.Is(err, ErrValidation) {
		t.Errorf("min_score: ожидалась ErrValidation, получено: %v", err)
	}
	if _, _, err := svc.List(ctx, model.MatchFilter{}, model.ListParams{Sort: "-rationale"}); !errors.Is(err, ErrValidation) {
		t.Errorf("сортировка: ожидалась ErrValidation, получено: %v", err)
	}
}

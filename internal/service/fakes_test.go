package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/skillmatch/internal/domain/model"
	"github.com/bigkaa/skillmatch/internal/extraction"
	"github.com/bigkaa/skillmatch/internal/repository"
)

// --- In-memory хранилище для unit-тестов ---

// memData — общее состояние in-memory репозиториев.
type memData struct {
	mu         sync.Mutex
	uploads    map[string]*model.CVUpload
	candidates map[string]*model.Candidate
	jobs       map[string]*model.Job
	matches    map[string]*model.Match

	jobGetCalls  int
	jobLockCalls int
	txCount      int
	// failPair — если задана, ошибка создания/обновления сопоставления пары
	failPair func(candidateID, jobID string) error
}

func newMemData() *memData {
	return &memData{
		uploads:    make(map[string]*model.CVUpload),
		candidates: make(map[string]*model.Candidate),
		jobs:       make(map[string]*model.Job),
		matches:    make(map[string]*model.Match),
	}
}

func (d *memData) repos() *repository.Repositories {
	return &repository.Repositories{
		CVUploads:  &memUploads{d},
		Candidates: &memCandidates{d},
		Jobs:       &memJobs{d},
		Matches:    &memMatches{d},
	}
}

// InTx — фейковая транзакция: fn выполняется над тем же состоянием.
func (d *memData) InTx(_ context.Context, fn func(repos *repository.Repositories) error) error {
	d.mu.Lock()
	d.txCount++
	d.mu.Unlock()
	return fn(d.repos())
}

func (d *memData) matchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.matches)
}

func (d *memData) candidateCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.candidates)
}

func page[T any](items []T, params model.ListParams) []T {
	if params.Offset >= len(items) {
		return []T{}
	}
	items = items[params.Offset:]
	if params.Limit > 0 && params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

// --- CVUploadRepository ---

type memUploads struct{ d *memData }

func (r *memUploads) Create(_ context.Context, u *model.CVUpload) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u.UploadedAt = time.Now().UTC()
	r.d.uploads[u.ID] = copyOf(u)
	return nil
}

func (r *memUploads) GetByID(_ context.Context, id string) (*model.CVUpload, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(u), nil
}

func (r *memUploads) GetForUpdate(ctx context.Context, id string) (*model.CVUpload, error) {
	return r.GetByID(ctx, id)
}

func (r *memUploads) List(_ context.Context, params model.ListParams) ([]*model.CVUpload, error) {
	if _, err := repository.CVUploadSortKeys.OrderBy(params.Sort, repository.DefaultCVUploadSort); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	items := make([]*model.CVUpload, 0, len(r.d.uploads))
	for _, u := range r.d.uploads {
		items = append(items, copyOf(u))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, params), nil
}

func (r *memUploads) Count(_ context.Context) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.d.uploads), nil
}

func (r *memUploads) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.uploads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.uploads, id)
	for cid, c := range r.d.candidates {
		if c.SourceCVID == id {
			delete(r.d.candidates, cid)
		}
	}
	return nil
}

// --- CandidateRepository ---

type memCandidates struct{ d *memData }

func (r *memCandidates) Create(_ context.Context, c *model.Candidate) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.candidates {
		if existing.SourceCVID == c.SourceCVID {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	c.ParsedAt, c.UpdatedAt = now, now
	r.d.candidates[c.ID] = copyOf(c)
	return nil
}

func (r *memCandidates) GetByID(_ context.Context, id string) (*model.Candidate, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.candidates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(c), nil
}

func (r *memCandidates) GetBySourceCV(_ context.Context, cvUploadID string) (*model.Candidate, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, c := range r.d.candidates {
		if c.SourceCVID == cvUploadID {
			return copyOf(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCandidates) UpdateAttributes(_ context.Context, c *model.Candidate) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored, ok := r.d.candidates[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = c.Name
	stored.Skills = slices.Clone(c.Skills)
	stored.ExperienceYears = c.ExperienceYears
	stored.UpdatedAt = time.Now().UTC()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memCandidates) Patch(_ context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.candidates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	return copyOf(c), nil
}

func (r *memCandidates) filter(f model.CandidateFilter) []*model.Candidate {
	items := make([]*model.Candidate, 0, len(r.d.candidates))
	for _, c := range r.d.candidates {
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			hit := strings.Contains(strings.ToLower(c.Name), q)
			for _, s := range c.Skills {
				hit = hit || strings.Contains(strings.ToLower(s), q)
			}
			if !hit {
				continue
			}
		}
		items = append(items, copyOf(c))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r *memCandidates) List(_ context.Context, f model.CandidateFilter, params model.ListParams) ([]*model.Candidate, error) {
	if _, err := repository.CandidateSortKeys.OrderBy(params.Sort, repository.DefaultCandidateSort); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return page(r.filter(f), params), nil
}

func (r *memCandidates) Count(_ context.Context, f model.CandidateFilter) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.filter(f)), nil
}

func (r *memCandidates) ListActive(_ context.Context) ([]*model.Candidate, error) {
	active := model.StatusActive
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.filter(model.CandidateFilter{Status: &active}), nil
}

// --- JobRepository ---

type memJobs struct{ d *memData }

func (r *memJobs) Create(_ context.Context, j *model.Job) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	r.d.jobs[j.ID] = copyOf(j)
	return nil
}

func (r *memJobs) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.jobGetCalls++
	j, ok := r.d.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(j), nil
}

func (r *memJobs) GetForUpdate(ctx context.Context, id string) (*model.Job, error) {
	r.d.mu.Lock()
	r.d.jobLockCalls++
	r.d.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *memJobs) Update(_ context.Context, j *model.Job) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.jobs[j.ID]; !ok {
		return repository.ErrNotFound
	}
	j.UpdatedAt = time.Now().UTC()
	r.d.jobs[j.ID] = copyOf(j)
	return nil
}

func (r *memJobs) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.jobs, id)
	for mid, m := range r.d.matches {
		if m.JobID == id {
			delete(r.d.matches, mid)
		}
	}
	return nil
}

func (r *memJobs) filter(f model.JobFilter) []*model.Job {
	items := make([]*model.Job, 0, len(r.d.jobs))
	for _, j := range r.d.jobs {
		if f.Status != nil && j.Status != *f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(j.Title), strings.ToLower(f.Search)) {
			continue
		}
		items = append(items, copyOf(j))
	}
	sort.Slice(items, func(i, k int) bool { return items[i].ID < items[k].ID })
	return items
}

func (r *memJobs) List(_ context.Context, f model.JobFilter, params model.ListParams) ([]*model.Job, error) {
	if _, err := repository.JobSortKeys.OrderBy(params.Sort, repository.DefaultJobSort); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return page(r.filter(f), params), nil
}

func (r *memJobs) Count(_ context.Context, f model.JobFilter) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.filter(f)), nil
}

func (r *memJobs) ListActive(_ context.Context) ([]*model.Job, error) {
	active := model.StatusActive
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.filter(model.JobFilter{Status: &active}), nil
}

// --- MatchRepository ---

type memMatches struct{ d *memData }

func (r *memMatches) LockPair(_ context.Context, _, _ string) error { return nil }

func (r *memMatches) Create(_ context.Context, m *model.Match) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failPair != nil {
		if err := r.d.failPair(m.CandidateID, m.JobID); err != nil {
			return err
		}
	}
	for _, existing := range r.d.matches {
		if existing.CandidateID == m.CandidateID && existing.JobID == m.JobID {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	m.MatchedAt, m.UpdatedAt = now, now
	r.d.matches[m.ID] = copyOf(m)
	return nil
}

func (r *memMatches) GetByID(_ context.Context, id string) (*model.Match, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	m, ok := r.d.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(m), nil
}

func (r *memMatches) GetByPair(_ context.Context, candidateID, jobID string) (*model.Match, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, m := range r.d.matches {
		if m.CandidateID == candidateID && m.JobID == jobID {
			return copyOf(m), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memMatches) UpdateScore(_ context.Context, m *model.Match) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failPair != nil {
		if err := r.d.failPair(m.CandidateID, m.JobID); err != nil {
			return err
		}
	}
	stored, ok := r.d.matches[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Score = m.Score
	stored.Rationale = m.Rationale
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memMatches) filter(f model.MatchFilter) []*model.MatchDetail {
	items := make([]*model.MatchDetail, 0, len(r.d.matches))
	for _, m := range r.d.matches {
		if f.CandidateID != "" && m.CandidateID != f.CandidateID {
			continue
		}
		if f.JobID != "" && m.JobID != f.JobID {
			continue
		}
		if f.MinScore != nil && m.Score < *f.MinScore {
			continue
		}
		d := &model.MatchDetail{Match: *m}
		if c, ok := r.d.candidates[m.CandidateID]; ok {
			d.CandidateName = c.Name
		}
		if j, ok := r.d.jobs[m.JobID]; ok {
			d.JobTitle = j.Title
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return items
}

func (r *memMatches) List(_ context.Context, f model.MatchFilter, params model.ListParams) ([]*model.MatchDetail, error) {
	if _, err := repository.MatchSortKeys.OrderBy(params.Sort, repository.DefaultMatchSort); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return page(r.filter(f), params), nil
}

func (r *memMatches) Count(_ context.Context, f model.MatchFilter) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.filter(f)), nil
}

// --- Экстрактор ---

// mockExtractor — мок extraction.Extractor.
type mockExtractor struct {
	attrs *model.CandidateAttributes
	err   error
	calls int
	last  extraction.Document
}

func (m *mockExtractor) Extract(_ context.Context, doc extraction.Document) (*model.CandidateAttributes, error) {
	m.calls++
	m.last = doc
	if m.err != nil {
		return nil, m.err
	}
	a := *m.attrs
	a.Skills = slices.Clone(m.attrs.Skills)
	return &a, nil
}

func (m *mockExtractor) Name() string { return "mock" }

// pathResolver — FullPath с фиксированным каталогом.
type pathResolver string

func (p pathResolver) FullPath(storagePath string) string {
	return string(p) + "/" + storagePath
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

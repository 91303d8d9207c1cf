package student

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shikkhaloy/shikkhaloy/core"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrNameRollRequired = errors.New("name and roll number are required")
	ErrNothingToExport  = errors.New("no students to export")

	// OrderableFields are the columns a listing may be ordered by.
	OrderableFields = map[string]bool{
		"name_en": true, "name_bn": true, "roll": true, "class": true, "section": true,
		"gender": true, "grade": true, "attendance": true, "created_at": true, "updated_at": true,
	}
	DefaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND on the available QueryFilter fields; QueryFilter.Search matches
		// names case-insensitively and the roll.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, in Input) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		Get(ctx context.Context, id string) (Student, error)
		Update(ctx context.Context, id string, in Input) (Student, error)
		Delete(ctx context.Context, id string) error
		Stats(ctx context.Context) (Stats, error)
		Export(ctx context.Context, w io.Writer, filter *QueryFilter) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, in Input) (Student, error) {
	in.Clean()
	if err := in.CheckRequired(); err != nil {
		return Student{}, err
	}
	now := NowFunc().UTC()
	s := in.apply(Student{CreatedAt: now, UpdatedAt: now})
	return svc.repo.CreateStudent(ctx, s)
}

// Query lists students; unknown ordering fields are dropped and the newest come first by default.
func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudents(ctx, filter, CleanOrdering(ordering))
}

func (svc *service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Update overwrites the record; concurrent updates are last-write-wins.
func (svc *service) Update(ctx context.Context, id string, in Input) (Student, error) {
	in.Clean()
	if err := in.CheckRequired(); err != nil {
		return Student{}, err
	}
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	s = in.apply(s)
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	list, err := svc.repo.QueryStudents(ctx, nil, DefaultOrdering)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

// Export writes the students matching `filter` as CSV and returns how many were written.
func (svc *service) Export(ctx context.Context, w io.Writer, filter *QueryFilter) (int, error) {
	list, err := svc.Query(ctx, filter, DefaultOrdering)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, list); err != nil {
		return 0, err
	}
	return len(list), nil
}

// CleanOrdering keeps the orderable fields only, falling back to DefaultOrdering.
func CleanOrdering(ordering []core.DBOrdering) []core.DBOrdering {
	cleaned := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if OrderableFields[ord.Field] {
			cleaned = append(cleaned, ord)
		}
	}
	if len(cleaned) == 0 {
		return DefaultOrdering
	}
	return cleaned
}

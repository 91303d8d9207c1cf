package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.NewString()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mutex.RLock()
	list := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		list = append(list, *s)
	}
	repo.db.mutex.RUnlock()

	if filter != nil && !filter.IsEmpty() {
		list = student.Search(list, filter.Search, filter.Class)
	}
	sortStudents(list, ordering)
	return list, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func sortStudents(list []student.Student, ordering []core.DBOrdering) {
	sort.SliceStable(list, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(list[i], list[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return list[i].ID < list[j].ID
	})
}

func compareField(a, b student.Student, field string) int {
	switch field {
	case "name_en":
		return strings.Compare(a.NameEN, b.NameEN)
	case "name_bn":
		return strings.Compare(a.NameBN, b.NameBN)
	case "roll":
		return strings.Compare(a.Roll, b.Roll)
	case "class":
		return strings.Compare(a.Class, b.Class)
	case "section":
		return strings.Compare(a.Section.String, b.Section.String)
	case "gender":
		return strings.Compare(string(a.Gender), string(b.Gender))
	case "grade":
		return strings.Compare(a.Grade.String, b.Grade.String)
	case "attendance":
		switch {
		case a.Attendance < b.Attendance:
			return -1
		case a.Attendance > b.Attendance:
			return 1
		}
		return 0
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

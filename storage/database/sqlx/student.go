package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

const studentColumns = "id, name_en, name_bn, roll, class, section, gender, dob, birth_id, father_name_en, " +
	"father_name_bn, father_id, mother_name_en, address_bn, contact, grade, attendance, created_at, updated_at"

type studentRepository struct {
	baseRepository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{baseRepository{exec: exec}}
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	s.ID = uuid.NewString()
	q := "INSERT INTO students (" + studentColumns + ") VALUES (" + namedParams(studentColumns) + ")"
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, s); err != nil {
		return student.Student{}, wrapErr(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		// students with a name or roll matching the search keyword
		if filter.Search != "" {
			val := arg("%" + escapeLike(filter.Search) + "%")
			where = append(where, "(name_en ILIKE "+val+" OR name_bn ILIKE "+val+" OR roll LIKE "+val+")")
		}
		if filter.Class != "" && filter.Class != student.AllClasses {
			where = append(where, "class = "+arg(filter.Class))
		}
	}

	q := "SELECT " + studentColumns + " FROM students"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if ordering = student.CleanOrdering(ordering); len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering)+1)
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		orderList = append(orderList, "id ASC")
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	students := make([]student.Student, 0)
	if err := repo.getExec(exec).SelectContext(ctx, &students, q, args...); err != nil {
		return nil, wrapErr(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var s student.Student
	q := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	if err := repo.getExec(exec).GetContext(ctx, &s, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by ID")
	}
	return s, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	sets := make([]string, 0, 20)
	for _, col := range strings.Split(studentColumns, ", ") {
		if col == "id" || col == "created_at" {
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	q := "UPDATE students SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, s)
	if err != nil {
		return student.Student{}, wrapErr(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return student.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return wrapErr(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

// namedParams turns "a, b" into ":a, :b".
func namedParams(columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = ":" + c
	}
	return strings.Join(cols, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

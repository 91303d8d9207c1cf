package inmemdb

import (
	"context"
	"sync"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type (
	// DB keeps every table in memory. It backs the test suites and the `memory` database engine.
	DB struct {
		txMu    sync.Mutex // serializes transactions
		user    *userTable
		profile *profileTable
		student *studentTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	profileTable struct {
		mutex sync.RWMutex
		table map[string]*user.Profile
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	snapshot struct {
		users    map[string]user.User
		profiles map[string]user.Profile
		students map[string]student.Student
	}
)

var _ core.TxRunner = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		profile: &profileTable{table: make(map[string]*user.Profile)},
		student: &studentTable{table: make(map[string]*student.Student)},
	}
}

// RunInTx restores every table to its state before fn when fn fails or panics.
// The executor handed to fn is nil: in-memory repositories ignore it.
func (db *DB) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			db.restore(snap)
			panic(p)
		}
		if err != nil {
			db.restore(snap)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}

func (db *DB) snapshot() snapshot {
	snap := snapshot{
		users:    make(map[string]user.User),
		profiles: make(map[string]user.Profile),
		students: make(map[string]student.Student),
	}
	db.user.mutex.RLock()
	for id, u := range db.user.table {
		snap.users[id] = *u
	}
	db.user.mutex.RUnlock()

	db.profile.mutex.RLock()
	for id, p := range db.profile.table {
		snap.profiles[id] = *p
	}
	db.profile.mutex.RUnlock()

	db.student.mutex.RLock()
	for id, s := range db.student.table {
		snap.students[id] = *s
	}
	db.student.mutex.RUnlock()
	return snap
}

func (db *DB) restore(snap snapshot) {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User, len(snap.users))
	for id, u := range snap.users {
		u := u
		db.user.table[id] = &u
	}
	db.user.mutex.Unlock()

	db.profile.mutex.Lock()
	db.profile.table = make(map[string]*user.Profile, len(snap.profiles))
	for id, p := range snap.profiles {
		p := p
		db.profile.table[id] = &p
	}
	db.profile.mutex.Unlock()

	db.student.mutex.Lock()
	db.student.table = make(map[string]*student.Student, len(snap.students))
	for id, s := range snap.students {
		s := s
		db.student.table[id] = &s
	}
	db.student.mutex.Unlock()
}

// Flush empties every table.
func (db *DB) Flush() {
	db.restore(snapshot{})
}

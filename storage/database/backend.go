package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/student"
	"github.com/shikkhaloy/shikkhaloy/core/user"
	inmemdb "github.com/shikkhaloy/shikkhaloy/storage/database/inmem"
	sqlxrepos "github.com/shikkhaloy/shikkhaloy/storage/database/sqlx"
)

// Backend bundles the repositories of the configured database engine.
type Backend struct {
	DB          *sqlx.DB // nil for the memory engine
	Tx          core.TxRunner
	UserRepo    user.Repository
	StudentRepo student.Repository
}

// OpenBackend sets up the configured engine. A postgres database is created & migrated when needed.
func OpenBackend(ctx context.Context, conf *core.Config) (*Backend, error) {
	if conf.Database.Engine == EngineMemory {
		mem := inmemdb.Open()
		return &Backend{
			Tx:          mem,
			UserRepo:    inmemdb.NewUserRepository(mem),
			StudentRepo: inmemdb.NewStudentRepository(mem),
		}, nil
	}

	if err := CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := Open(conf)
	if err != nil {
		return nil, err
	}
	if err = Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Backend{
		DB:          db,
		Tx:          NewTxRunner(db),
		UserRepo:    sqlxrepos.NewUserRepository(db),
		StudentRepo: sqlxrepos.NewStudentRepository(db),
	}, nil
}

func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return errors.Wrap(b.DB.Close(), "closing database")
}

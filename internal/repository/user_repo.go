package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"usermgr/internal/models"
	"usermgr/internal/services"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v3"
	"github.com/scylladb/gocqlx/v3/qb"
	"github.com/scylladb/gocqlx/v3/table"
)

var UserTable = table.New(table.Metadata{
	Name:    "users",
	Columns: []string{"id", "full_name", "email", "phone_number", "created_at"},
	PartKey: []string{"id"},
	SortKey: []string{},
})

var (
	updateUserStmt, updateUserNames = UserTable.UpdateBuilder("full_name", "email", "phone_number").Existing().ToCql()
	deleteUserStmt, deleteUserNames = UserTable.DeleteBuilder().Existing().ToCql()
)

const createUserTableCQL = `CREATE TABLE IF NOT EXISTS users (
	id bigint PRIMARY KEY,
	full_name text,
	email text,
	phone_number text,
	created_at timestamp
)`

// IDSequence hands out identifiers for new users.
type IDSequence interface {
	Next(ctx context.Context) (int64, error)
}

// ScyllaUserRepository stores users in the "users" table. Scylla has no
// auto-increment, so new ids come from an IDSequence.
type ScyllaUserRepository struct {
	session gocqlx.Session
	ids     IDSequence
	now     func() time.Time
}

func NewScyllaUserRepository(session gocqlx.Session, ids IDSequence) *ScyllaUserRepository {
	return &ScyllaUserRepository{session: session, ids: ids, now: time.Now}
}

// EnsureSchema creates the users table if it is missing.
func (r *ScyllaUserRepository) EnsureSchema() error {
	if err := r.session.ExecStmt(createUserTableCQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *ScyllaUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	stmt, names := UserTable.SelectAll()
	if err := r.session.ContextQuery(ctx, stmt, names).SelectRelease(&users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *ScyllaUserRepository) FindByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	stmt, names := UserTable.Get()
	q := r.session.ContextQuery(ctx, stmt, names).BindMap(qb.M{"id": id})
	found, err := lookupResult(id, q.GetRelease(&user))
	if !found {
		return nil, false, err
	}
	return &user, true, nil
}

// Save inserts new users and updates existing ones with a lightweight
// transaction, so a row deleted meanwhile is not recreated.
func (r *ScyllaUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if !user.IsNew() {
		return r.update(ctx, user)
	}

	stored, err := r.newRecord(ctx, user)
	if err != nil {
		return nil, err
	}
	stmt, names := UserTable.Insert()
	if err := r.session.ContextQuery(ctx, stmt, names).BindStruct(stored).ExecRelease(); err != nil {
		return nil, fmt.Errorf("save user %d: %w", stored.ID, err)
	}
	return stored, nil
}

func (r *ScyllaUserRepository) update(ctx context.Context, user *models.User) (*models.User, error) {
	stored := user.Clone()
	applied, err := r.session.ContextQuery(ctx, updateUserStmt, updateUserNames).BindStruct(stored).ExecCASRelease()
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", stored.ID, err)
	}
	if !applied {
		return nil, &services.NotFoundError{ID: stored.ID}
	}
	return stored, nil
}

// newRecord copies user with a fresh id and creation time.
func (r *ScyllaUserRepository) newRecord(ctx context.Context, user *models.User) (*models.User, error) {
	stored := user.Clone()
	id, err := r.ids.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate user id: %w", err)
	}
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		// Scylla timestamps carry millisecond precision.
		stored.CreatedAt = r.now().UTC().Truncate(time.Millisecond)
	}
	return stored, nil
}

func (r *ScyllaUserRepository) Delete(ctx context.Context, user *models.User) error {
	q := r.session.ContextQuery(ctx, deleteUserStmt, deleteUserNames).BindMap(qb.M{"id": user.ID})
	applied, err := q.ExecCASRelease()
	if err != nil {
		return fmt.Errorf("delete user %d: %w", user.ID, err)
	}
	if !applied {
		return &services.NotFoundError{ID: user.ID}
	}
	return nil
}

// lookupResult turns a single-row read into the (found, err) pair of FindByID.
func lookupResult(id int64, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get user %d: %w", id, err)
}

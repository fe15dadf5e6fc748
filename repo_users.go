package userapi

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the store boundary for user records. Uniqueness and deadline
// handling live here so the domain service only sees taxonomy errors.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User, columns ...string) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*User, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository creates a bun backed Users repository
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	return a.getByColumn(ctx, tx, "id", id)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getByColumn(ctx, a.db, "username", username)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, a.db, "email", email)
}

// GetByIdentifier resolves a login identifier, username takes precedence
// over email when both columns hold the same value.
func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	user, err := a.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}

	if !errors.IsNotFound(err) {
		return nil, err
	}

	return a.GetByEmail(ctx, identifier)
}

func (a *users) getByColumn(ctx context.Context, tx bun.IDB, column string, value any) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, mapStoreError(err)
	}

	return record, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.exists(ctx, "username", username)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.exists(ctx, "email", email)
}

func (a *users) exists(ctx context.Context, column string, value any) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Count(ctx)

	if err != nil {
		return false, mapStoreError(err)
	}

	return count > 0, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapStoreError(err)
	}

	// re-read so defaults applied by the database are visible to callers
	return a.GetByIDTx(ctx, tx, record.ID)
}

func (a *users) Update(ctx context.Context, record *User, columns ...string) (*User, error) {
	return a.UpdateTx(ctx, a.db, record, columns...)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) (*User, error) {
	q := tx.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrUserNotFound
	}

	return a.GetByIDTx(ctx, tx, record.ID)
}

func (a *users) Delete(ctx context.Context, id int64) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return mapStoreError(err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) List(ctx context.Context, limit, offset int) ([]*User, error) {
	var records []*User

	q := a.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Offset(offset)

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, mapStoreError(err)
	}

	return records, nil
}

// mapStoreError translates driver errors into the shared taxonomy. The sqlite
// and postgres drivers both surface constraint violations as plain strings,
// the column name in the message picks the conflict kind.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, ErrDatabaseTimeout.Category, ErrDatabaseTimeout.Message).
			WithTextCode(ErrDatabaseTimeout.TextCode).
			WithCode(ErrDatabaseTimeout.Code)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "unique constraint") {
		if strings.Contains(msg, "username") {
			return ErrUsernameExists
		}
		if strings.Contains(msg, "email") {
			return ErrEmailExists
		}
	}

	return errors.Wrap(err, errors.CategoryInternal, "database operation failed")
}

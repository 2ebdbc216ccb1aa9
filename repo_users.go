package users

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the store for user records. Uniqueness of username and email is
// enforced by the table's unique constraints; driver-level violations are
// surfaced to callers through IsUniqueViolation.
type Users interface {
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]*User, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type usersRepo struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*usersRepo)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &usersRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *usersRepo) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *usersRepo) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *usersRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *usersRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *usersRepo) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"username": username})
		}
		return nil, err
	}

	return record, nil
}

// ExistsByUsernameOrEmail is the registration pre-check. It reports only
// whether either value is taken, never which one. The check is advisory:
// the unique constraints remain the authority under concurrent inserts.
func (a *usersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		WhereOr("?TableAlias.email = ?", email).
		Count(ctx)

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (a *usersRepo) List(ctx context.Context) ([]*User, error) {
	records := []*User{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *usersRepo) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.IsActive = true
}

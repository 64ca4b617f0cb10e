package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthUsers is the repository for locally-owned accounts.
type AuthUsers interface {
	repository.Repository[*AuthUser]

	GetByUsername(ctx context.Context, usernameUpper string) (*AuthUser, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, usernameUpper string) (*AuthUser, error)
	SetLocked(ctx context.Context, usernameUpper string, locked bool) error
	SetLockedTx(ctx context.Context, tx bun.IDB, usernameUpper string, locked bool) error
	TrackSuccessfulLogin(ctx context.Context, usernameUpper string) error
}

type authUsers struct {
	repository.Repository[*AuthUser]
	db *bun.DB
}

var (
	_ AuthUsers                        = (*authUsers)(nil)
	_ repository.Repository[*AuthUser] = (*authUsers)(nil)
)

func NewAuthUsersRepository(db *bun.DB) AuthUsers {
	repo := repository.NewRepository[*AuthUser](db, repository.ModelHandlers[*AuthUser]{
		NewRecord: func() *AuthUser { return &AuthUser{} },
		GetID: func(u *AuthUser) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *AuthUser, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &authUsers{
		Repository: repo,
		db:         db,
	}
}

func (a *authUsers) GetByUsername(ctx context.Context, usernameUpper string) (*AuthUser, error) {
	return a.GetByUsernameTx(ctx, a.db, usernameUpper)
}

func (a *authUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, usernameUpper string) (*AuthUser, error) {
	record := &AuthUser{}
	err := tx.NewSelect().
		Model(record).
		Where("upper(?TableAlias.username) = ?", strings.ToUpper(usernameUpper)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *authUsers) SetLocked(ctx context.Context, usernameUpper string, locked bool) error {
	return a.SetLockedTx(ctx, a.db, usernameUpper, locked)
}

func (a *authUsers) SetLockedTx(ctx context.Context, tx bun.IDB, usernameUpper string, locked bool) error {
	_, err := tx.NewUpdate().
		Model((*AuthUser)(nil)).
		Set("locked = ?", locked).
		Set("updated_at = ?", time.Now()).
		Where("upper(username) = ?", strings.ToUpper(usernameUpper)).
		Exec(ctx)
	return err
}

func (a *authUsers) TrackSuccessfulLogin(ctx context.Context, usernameUpper string) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*AuthUser)(nil)).
		Set("last_logged_in = ?", now).
		Set("updated_at = ?", now).
		Where("upper(username) = ?", strings.ToUpper(usernameUpper)).
		Exec(ctx)
	return err
}

// AuthStore adapts the local repository to the IdentityBackend contract
// consumed by the dispatcher.
type AuthStore struct {
	users AuthUsers
	now   func() time.Time
}

var _ IdentityBackend = (*AuthStore)(nil)

func NewAuthStore(users AuthUsers) *AuthStore {
	return &AuthStore{
		users: users,
		now:   time.Now,
	}
}

func (s *AuthStore) Source() AuthSource {
	return SourceAuth
}

func (s *AuthStore) Lookup(ctx context.Context, usernameUpper string) (*UserRecord, error) {
	user, err := s.users.GetByUsername(ctx, usernameUpper)
	if err != nil {
		return nil, err
	}
	return user.Record(s.now()), nil
}

// SetLockedStatus maps both lock flavors to the single boolean the
// local schema keeps; the grace distinction only matters to backends
// with richer status codes.
func (s *AuthStore) SetLockedStatus(ctx context.Context, usernameUpper string, status LockStatus) error {
	return s.users.SetLocked(ctx, usernameUpper, status != StatusOpen)
}

// SQLRetryCounterStore keeps retry counters in the user_retries table.
// Writes are upserts with no read-modify-write guard, matching the
// legacy table's last-writer-wins behavior.
type SQLRetryCounterStore struct {
	db *bun.DB
}

var _ RetryCounterStore = (*SQLRetryCounterStore)(nil)

func NewSQLRetryCounterStore(db *bun.DB) *SQLRetryCounterStore {
	return &SQLRetryCounterStore{db: db}
}

func (s *SQLRetryCounterStore) Get(ctx context.Context, usernameUpper string) (int, bool, error) {
	record := &UserRetry{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", usernameUpper).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return record.RetryCount, true, nil
}

func (s *SQLRetryCounterStore) Put(ctx context.Context, usernameUpper string, count int) error {
	record := &UserRetry{Username: usernameUpper, RetryCount: count}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (username) DO UPDATE").
		Set("retry_count = EXCLUDED.retry_count").
		Exec(ctx)
	return err
}

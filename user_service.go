package userapi

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Username length bounds, in characters
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// UserService implements account lifecycle rules on top of the Users store
type UserService struct {
	repo   RepositoryManager
	logger Logger
}

// NewUserService creates a new UserService
func NewUserService(repo RepositoryManager) *UserService {
	return &UserService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *UserService) WithLogger(logger Logger) *UserService {
	s.logger = logger
	return s
}

func validateUsername(username string) *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.Validate(username,
			validation.Required,
			validation.Length(MinUsernameLength, MaxUsernameLength),
		)
	}, "Invalid username")
}

// Register creates a new account. Email is optional; when present it must be
// unique. Conflicts are detected before any write so a failed registration
// leaves no partial row behind.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err.WithTextCode(TextCodeValidation)
	}

	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if email != "" {
		taken, err := s.repo.Users().ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
	}

	taken, err := s.repo.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameExists
	}

	record := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", record.ID, "username", record.Username)

	return record, nil
}

// Authenticate verifies credentials for a login identifier, trying username
// first and falling back to email. Inactive accounts are indistinguishable
// from missing ones.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID fetches a single user
func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.Users().GetByID(ctx, id)
}

// ChangeEmail updates the user's address. An empty value clears it. The
// conflict check only fires when the address belongs to a different account,
// re-submitting the current address is a no-op success.
func (s *UserService) ChangeEmail(ctx context.Context, id int64, newEmail string) (*User, error) {
	if err := ValidateEmail(newEmail); err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if newEmail != "" {
		holder, err := s.repo.Users().GetByEmail(ctx, newEmail)
		if err == nil && holder.ID != id {
			return nil, ErrEmailExists
		}
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
	}

	if user.Email == newEmail {
		return user, nil
	}

	user.Email = newEmail
	user.Touch()

	updated, err := s.repo.Users().Update(ctx, user, "email", "updated_at")
	if err != nil {
		return nil, err
	}

	s.logger.Info("changed user email", "user_id", id)

	return updated, nil
}

// ChangePassword swaps the password after verifying the old one. The new
// password goes through the same policy as registration.
func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) (*User, error) {
	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	user.Touch()

	updated, err := s.repo.Users().Update(ctx, user, "password_hash", "updated_at")
	if err != nil {
		return nil, err
	}

	s.logger.Info("changed user password", "user_id", id)

	return updated, nil
}

// List returns users ordered by id
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*User, error) {
	return s.repo.Users().List(ctx, limit, offset)
}

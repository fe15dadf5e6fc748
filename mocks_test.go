package userapi_test

import (
	"context"
	"database/sql"
	"time"

	userapi "github.com/goliatone/go-users-api"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements userapi.Users for testing
type MockUsers struct {
	mock.Mock
}

func userArg(args mock.Arguments, i int) *userapi.User {
	if v, ok := args.Get(i).(*userapi.User); ok {
		return v
	}
	return nil
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*userapi.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*userapi.User, error) {
	args := m.Called(ctx, tx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*userapi.User, error) {
	args := m.Called(ctx, username)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*userapi.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string) (*userapi.User, error) {
	args := m.Called(ctx, identifier)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *userapi.User) (*userapi.User, error) {
	args := m.Called(ctx, record)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *userapi.User) (*userapi.User, error) {
	args := m.Called(ctx, tx, record)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *userapi.User, columns ...string) (*userapi.User, error) {
	args := m.Called(ctx, record, columns)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *userapi.User, columns ...string) (*userapi.User, error) {
	args := m.Called(ctx, tx, record, columns)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) List(ctx context.Context, limit, offset int) ([]*userapi.User, error) {
	args := m.Called(ctx, limit, offset)
	if v, ok := args.Get(0).([]*userapi.User); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepositoryManager wires MockUsers behind the RepositoryManager
// interface. RunInTx executes the callback directly, there is no real
// transaction in unit tests.
type MockRepositoryManager struct {
	users *MockUsers
}

func NewMockRepositoryManager(users *MockUsers) *MockRepositoryManager {
	return &MockRepositoryManager{users: users}
}

func (m *MockRepositoryManager) Users() userapi.Users {
	return m.users
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

// MockTokenService implements userapi.TokenService for testing
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	args := m.Called(subject, roles, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Verify(tokenString string) (*userapi.SessionClaims, error) {
	args := m.Called(tokenString)
	if v, ok := args.Get(0).(*userapi.SessionClaims); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLogger implements userapi.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

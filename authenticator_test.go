package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct {
	signingKey    string
	tokenLifetime time.Duration
	hashCost      int
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "user" }

func (c testConfig) GetTokenLifetime() time.Duration {
	if c.tokenLifetime == 0 {
		return time.Hour
	}
	return c.tokenLifetime
}

func (c testConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }
func (c testConfig) GetIssuer() string      { return "go-users-test" }
func (c testConfig) GetAudience() []string  { return nil }

func (c testConfig) GetHashCost() int {
	if c.hashCost == 0 {
		return bcrypt.MinCost
	}
	return c.hashCost
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) Register(ctx context.Context, user *users.User) (*users.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func activeUser(username, password string) *users.User {
	hash, err := users.HashPasswordCost(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &users.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
}

func TestRegister(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	created := &users.User{
		ID:       uuid.New(),
		Username: "ren",
		Email:    "ren@example.com",
		IsActive: true,
	}

	store.On("ExistsByUsernameOrEmail", mock.Anything, "ren", "ren@example.com").Return(false, nil)
	store.On("Register", mock.Anything, mock.AnythingOfType("*users.User")).
		Run(func(args mock.Arguments) {
			created.PasswordHash = args.Get(1).(*users.User).PasswordHash
		}).
		Return(created, nil)

	result, err := auther.Register(context.Background(), "ren", "ren@example.com", "password123!")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.AccessToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "ren", result.User.Username)
	assert.Equal(t, "ren@example.com", result.User.Email)

	// stored hash verifies against the plaintext, and the plaintext was
	// never persisted
	assert.NotEqual(t, "password123!", created.PasswordHash)
	assert.NoError(t, users.ComparePasswordAndHash("password123!", created.PasswordHash))

	// fresh token validates against the same service
	claims, err := auther.TokenService().Validate(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ren", claims.Username())

	store.AssertExpectations(t)
}

func TestRegisterConflict(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	store.On("ExistsByUsernameOrEmail", mock.Anything, "taken", "taken@example.com").Return(true, nil)

	result, err := auther.Register(context.Background(), "taken", "taken@example.com", "password123!")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, users.ErrUserTaken, err)
	assert.True(t, users.IsConflict(err))

	store.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterLateUniqueViolation(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	store.On("ExistsByUsernameOrEmail", mock.Anything, "racer", "racer@example.com").Return(false, nil)
	store.On("Register", mock.Anything, mock.AnythingOfType("*users.User")).
		Return(nil, assert.AnError)

	_, err := auther.Register(context.Background(), "racer", "racer@example.com", "password123!")
	require.Error(t, err)
	assert.False(t, users.IsConflict(err))

	// a concurrent duplicate insert slips past the pre-check; the driver
	// violation must surface as the same generic conflict
	store2 := &mockUserStore{}
	auther2 := users.NewAuthenticator(store2, testConfig{})

	store2.On("ExistsByUsernameOrEmail", mock.Anything, "racer", "racer@example.com").Return(false, nil)
	store2.On("Register", mock.Anything, mock.AnythingOfType("*users.User")).
		Return(nil, &uniqueViolationError{})

	result, err := auther2.Register(context.Background(), "racer", "racer@example.com", "password123!")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, users.ErrUserTaken, err)
}

type uniqueViolationError struct{}

func (e *uniqueViolationError) Error() string {
	return "constraint failed: UNIQUE constraint failed: users.username (2067)"
}

func TestLogin(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	user := activeUser("ren", "password123!")
	store.On("GetByUsername", mock.Anything, "ren").Return(user, nil)

	result, err := auther.Login(context.Background(), "ren", "password123!")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "ren", result.User.Username)

	claims, err := auther.TokenService().Validate(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	user := activeUser("known", "correctPassword!")
	store.On("GetByUsername", mock.Anything, "known").Return(user, nil)
	store.On("GetByUsername", mock.Anything, "unknown").
		Return(nil, repository.NewRecordNotFound())

	_, wrongPassErr := auther.Login(context.Background(), "known", "wrongPassword!")
	_, unknownUserErr := auther.Login(context.Background(), "unknown", "correctPassword!")

	require.Error(t, wrongPassErr)
	require.Error(t, unknownUserErr)

	// wrong password and unknown username are indistinguishable
	assert.Equal(t, wrongPassErr, unknownUserErr)
	assert.Equal(t, users.ErrInvalidCredentials, wrongPassErr)
}

func TestLoginInactiveUser(t *testing.T) {
	store := &mockUserStore{}
	auther := users.NewAuthenticator(store, testConfig{})

	user := activeUser("dormant", "password123!")
	user.IsActive = false
	store.On("GetByUsername", mock.Anything, "dormant").Return(user, nil)

	result, err := auther.Login(context.Background(), "dormant", "password123!")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, users.ErrInvalidCredentials, err)
}

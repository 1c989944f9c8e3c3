package services_test

import (
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func newTokenService(userRepo repositories.UserRepository) *services.TokenService {
	refreshRepo := repositories.NewMockRefreshTokenRepository()
	return services.NewTokenService(userRepo, refreshRepo, testJWTSecret, 15*time.Minute, 24*time.Hour)
}

func TestTokenService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}

	mockRepo.On("GetByUsername", user.Username).Return(nil, apperr.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, apperr.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := tokenService.RegisterUser(user)
	assert.NoError(t, err)
	// Password must be stored hashed.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Username already taken
	mockRepo.On("GetByUsername", user.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = tokenService.RegisterUser(user)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByUsername", user.Username).Return(nil, apperr.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = tokenService.RegisterUser(user)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	mockRepo.AssertExpectations(t)

	// Both lookups miss but a concurrent register wins the unique index
	// race; the repository conflict must surface as one, not as internal.
	mockRepo.On("GetByUsername", user.Username).Return(nil, apperr.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, apperr.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("username or email already registered: %w", apperr.ErrConflict)).Once()
	err = tokenService.RegisterUser(user)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	mockRepo.AssertExpectations(t)
}

func TestTokenService_LoginAndVerify(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsSeller: true,
	}

	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	loggedIn, pair, err := tokenService.Login("testuser", "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := tokenService.Verify(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, true, claims["is_seller"])

	// Wrong password
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	_, _, err = tokenService.Login("testuser", "wrongpassword")
	assert.ErrorIs(t, err, apperr.ErrAuthInvalid)

	// Unknown user yields the same generic failure
	mockRepo.On("GetByUsername", "nobody").Return(nil, apperr.ErrNotFound).Once()
	_, _, err = tokenService.Login("nobody", "password123")
	assert.ErrorIs(t, err, apperr.ErrAuthInvalid)
	mockRepo.AssertExpectations(t)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, _ := expired.SignedString([]byte(testJWTSecret))

	_, err := tokenService.Verify(expiredString)
	assert.ErrorIs(t, err, apperr.ErrAuthExpired)

	_, err = tokenService.Verify("not.a.token")
	assert.ErrorIs(t, err, apperr.ErrAuthInvalid)
}

func TestTokenService_RefreshRotation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	user := &models.User{ID: "user-123", Username: "testuser"}
	mockRepo.On("GetByID", user.ID).Return(user, nil)

	pair, err := tokenService.Issue(user)
	assert.NoError(t, err)

	// A refresh well before expiry is accepted and rotates the secret.
	newPair, err := tokenService.Refresh(pair.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The rotated secret is dead: replaying it must fail.
	_, err = tokenService.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)

	// The new secret still works.
	_, err = tokenService.Refresh(newPair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_RefreshRace(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	user := &models.User{ID: "user-123", Username: "testuser"}
	mockRepo.On("GetByID", user.ID).Return(user, nil)

	pair, err := tokenService.Issue(user)
	assert.NoError(t, err)

	// Two near-simultaneous refresh calls with the same secret: exactly one
	// may mint a new session.
	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tokenService.Refresh(pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestTokenService_Revoke(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := newTokenService(mockRepo)

	user := &models.User{ID: "user-123", Username: "testuser"}
	pair, err := tokenService.Issue(user)
	assert.NoError(t, err)

	assert.NoError(t, tokenService.Revoke(user.ID))

	_, err = tokenService.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)
}

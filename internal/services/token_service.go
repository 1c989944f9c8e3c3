package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
)

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenService handles registration, login and the session token lifecycle.
// Access tokens are short-lived signed JWTs; refresh tokens are opaque secrets
// persisted hashed so rotation and revocation hold server-side.
type TokenService struct {
	userRepo    repositories.UserRepository
	refreshRepo repositories.RefreshTokenRepository
	jwtSecret   []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(userRepo repositories.UserRepository, refreshRepo repositories.RefreshTokenRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		jwtSecret:   []byte(jwtSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// RegisterUser registers a new user, hashes their password, and saves them.
func (s *TokenService) RegisterUser(user *models.User) error {
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s' already taken: %w", user.Username, apperr.ErrConflict)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered: %w", user.Email, apperr.ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// Login authenticates a user and issues a fresh token pair.
func (s *TokenService) Login(username, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrAuthInvalid)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", apperr.ErrAuthInvalid)
	}

	pair, err := s.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Issue mints a claims-bearing access token and a persisted refresh token for
// the user.
func (s *TokenService) Issue(user *models.User) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   user.ID,
		"username":  user.Username,
		"is_seller": user.IsSeller,
		"is_admin":  user.IsAdmin,
		"exp":       expiresAt.Unix(),
		"iat":       now.Unix(),
	})
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	secret, hash, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}
	record := &models.RefreshToken{
		UserID:     user.ID,
		SecretHash: hash,
		ExpiresAt:  now.Add(s.refreshTTL),
	}
	if err := s.refreshRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresAt:    expiresAt,
	}, nil
}

// Verify parses and validates an access token. Expiry is reported as
// apperr.ErrAuthExpired so the client knows to re-authenticate rather than
// retry; every other failure is apperr.ErrAuthInvalid.
func (s *TokenService) Verify(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("token expired: %w", apperr.ErrAuthExpired)
		}
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", apperr.ErrAuthInvalid)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token: %w", apperr.ErrAuthInvalid)
}

// Refresh exchanges a refresh secret for a new token pair, rotating the old
// secret. The rotation is a compare-and-swap in the repository: with two
// near-simultaneous calls carrying the same secret, exactly one mints a new
// session and the loser fails with InvalidRefreshToken. A refresh is accepted
// at any time before expiry, not just near it.
func (s *TokenService) Refresh(refreshSecret string) (*TokenPair, error) {
	record, err := s.refreshRepo.GetBySecretHash(hashSecret(refreshSecret))
	if err != nil {
		return nil, err
	}
	if !record.Active(time.Now()) {
		return nil, fmt.Errorf("refresh token no longer active: %w", apperr.ErrInvalidRefreshToken)
	}
	if err := s.refreshRepo.Rotate(record.ID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh token user: %w", apperr.ErrInvalidRefreshToken)
	}
	return s.Issue(user)
}

// Revoke invalidates all of a user's refresh tokens, used on logout. Access
// tokens simply age out of their short TTL.
func (s *TokenService) Revoke(userID string) error {
	return s.refreshRepo.RevokeAllForUser(userID)
}

// newRefreshSecret mints an opaque secret and its storage hash.
func newRefreshSecret() (secret, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	secret = hex.EncodeToString(buf)
	return secret, hashSecret(secret), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

package devbackend

import (
	"errors"
	"fmt"
	"time"

	"foozadmin/internal/models"
	"foozadmin/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks passwords and issues access tokens.
type Authenticator struct {
	users    repositories.UserRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(users repositories.UserRepository, secret string, tokenTTL time.Duration) *Authenticator {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Authenticator{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// SeedAdmin creates the admin account unless the email is already taken.
func (a *Authenticator) SeedAdmin(email, password string) error {
	if _, err := a.users.GetByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return a.users.Create(&repositories.UserRecord{
		Email:        email,
		Name:         "Admin",
		Role:         "ADMIN",
		PasswordHash: string(hash),
	})
}

// Login authenticates a user and returns a signed token with the profile.
func (a *Authenticator) Login(email, password string) (*models.LoginResponse, error) {
	user, err := a.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(a.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{AccessToken: signed, User: user.Model()}, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (a *Authenticator) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

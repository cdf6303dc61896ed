package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fiorella/internal/models"
	"fiorella/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccountExists is returned when the username or email is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService issues and checks the tokens that guard the admin area.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// RegisterUser hashes the password and stores a new administrator.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if existing, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil && existing != nil {
		return fmt.Errorf("username '%s' already taken: %w", user.Username, ErrAccountExists)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered: %w", user.Email, ErrAccountExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser checks the credentials and returns a signed token.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

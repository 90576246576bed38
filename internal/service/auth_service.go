package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"manara/internal/model"
	"manara/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService is the thin auth collaborator: it issues and validates
// platform tokens. Identity proofing beyond the owner credentials
// belongs to the external identity provider, not this service.
type AuthService struct {
	userRepo      repository.UserRepo
	jwtSecret     []byte
	adminEmail    string
	adminPassword string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepo, secret, adminEmail, adminPassword string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     []byte(secret),
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// Login validates the owner credentials and returns a token bound to
// the owner profile, creating it on first login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	if email != s.adminEmail || password != s.adminPassword {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &model.User{
			ID:       "u_" + uuid.New().String()[:8],
			FullName: "Platform Owner",
			Email:    email,
			Role:     model.RoleOwner,
			Language: "en",
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

// Register creates (or revisits) a student profile for an identity the
// external provider already vouched for, and returns a platform token.
func (s *AuthService) Register(ctx context.Context, fullName, email, language string) (*model.LoginResponse, error) {
	if email == "" || fullName == "" {
		return nil, ErrInvalidCredentials
	}
	if language != "ar" {
		language = "en"
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &model.User{
			ID:       "u_" + uuid.New().String()[:8],
			FullName: fullName,
			Email:    email,
			Role:     model.RoleStudent,
			Language: language,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	claims := &model.UserClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a platform JWT and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

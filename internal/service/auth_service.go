package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/game"
	"github.com/lifepath/lifepath-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims extends JWT standard claims with the identity triple the core
// consumes: an opaque actor id (Subject), a role, and a display name.
type Claims struct {
	jwt.RegisteredClaims
	Role        model.Role `json:"role"`
	UserID      int        `json:"user_id,omitempty"` // teacher/student row id
	DisplayName string     `json:"display_name,omitempty"`
}

// Actor converts the claims into the core's actor value.
func (c *Claims) Actor() game.Actor {
	return game.Actor{
		ID:          c.Subject,
		Role:        c.Role,
		DisplayName: c.DisplayName,
	}
}

// AuthService handles password hashing and JWT issuance/validation. It is
// the identity provider boundary: downstream code sees only
// (actor id, role, display name).
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateTeacherToken creates a JWT for a teacher account.
func (s *AuthService) GenerateTeacherToken(teacher *model.Teacher) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: s.registered("teacher:" + strconv.Itoa(teacher.ID)),
		Role:             model.RoleTeacher,
		UserID:           teacher.ID,
		DisplayName:      teacher.Name,
	})
}

// GenerateStudentToken creates a JWT for a registered student identity.
func (s *AuthService) GenerateStudentToken(student *model.Student) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: s.registered("student:" + strconv.Itoa(student.ID)),
		Role:             model.RoleStudent,
		UserID:           student.ID,
		DisplayName:      student.Name,
	})
}

// GenerateGuestToken creates a JWT for anonymous individual-mode play.
// Guests have no database row; the subject is a fresh random id.
func (s *AuthService) GenerateGuestToken(displayName string) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: s.registered("guest:" + uuid.New().String()),
		Role:             model.RoleGuest,
		DisplayName:      displayName,
	})
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) registered(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

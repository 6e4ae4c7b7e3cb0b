package service

import (
	"strings"
	"testing"
	"time"

	"github.com/lifepath/lifepath-backend/internal/config"
	"github.com/lifepath/lifepath-backend/internal/model"
)

func testAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // minimum cost keeps hashing fast in tests
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s := testAuthService()

	hash, err := s.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := s.CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword with right password: %v", err)
	}
	if err := s.CheckPassword(hash, "wrong horse"); err != ErrInvalidCredentials {
		t.Errorf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestTeacherTokenRoundTrip(t *testing.T) {
	s := testAuthService()

	token, err := s.GenerateTeacherToken(&model.Teacher{ID: 7, Name: "Ms. Rivera"})
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "teacher:7" {
		t.Errorf("Subject = %q, want teacher:7", claims.Subject)
	}
	if claims.Role != model.RoleTeacher {
		t.Errorf("Role = %q, want teacher", claims.Role)
	}
	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}

	actor := claims.Actor()
	if actor.ID != "teacher:7" || actor.DisplayName != "Ms. Rivera" {
		t.Errorf("Actor() = %+v", actor)
	}
}

func TestStudentTokenRoundTrip(t *testing.T) {
	s := testAuthService()

	token, err := s.GenerateStudentToken(&model.Student{ID: 42, Name: "Alex"})
	if err != nil {
		t.Fatalf("GenerateStudentToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "student:42" || claims.Role != model.RoleStudent {
		t.Errorf("claims = subject %q role %q", claims.Subject, claims.Role)
	}
}

func TestGuestTokensAreDistinct(t *testing.T) {
	s := testAuthService()

	t1, err := s.GenerateGuestToken("Guest")
	if err != nil {
		t.Fatalf("GenerateGuestToken: %v", err)
	}
	t2, err := s.GenerateGuestToken("Guest")
	if err != nil {
		t.Fatalf("GenerateGuestToken: %v", err)
	}

	c1, err := s.ValidateToken(t1)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	c2, err := s.ValidateToken(t2)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if !strings.HasPrefix(c1.Subject, "guest:") {
		t.Errorf("Subject = %q, want guest: prefix", c1.Subject)
	}
	if c1.Subject == c2.Subject {
		t.Error("two guest tokens share a subject")
	}
	if c1.Role != model.RoleGuest {
		t.Errorf("Role = %q, want guest", c1.Role)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := testAuthService()

	token, err := s.GenerateTeacherToken(&model.Teacher{ID: 1, Name: "T"})
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}

	// Token signed with another secret must not validate.
	other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token validated under a different secret")
	}

	if _, err := s.ValidateToken(token + "x"); err == nil {
		t.Error("corrupted token validated")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := NewAuthService(&config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: -time.Minute,
	})

	token, err := s.GenerateGuestToken("Guest")
	if err != nil {
		t.Fatalf("GenerateGuestToken: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Error("expired token validated")
	}
}

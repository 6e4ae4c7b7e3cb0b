package service

import (
	"context"
	"fmt"

	"github.com/lifepath/lifepath-backend/internal/model"
	"github.com/lifepath/lifepath-backend/internal/repository"
)

// AccountService handles teacher and student account flows.
type AccountService struct {
	teacherRepo *repository.TeacherRepository
	studentRepo *repository.StudentRepository
	auth        *AuthService
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	teacherRepo *repository.TeacherRepository,
	studentRepo *repository.StudentRepository,
	auth *AuthService,
) *AccountService {
	return &AccountService{
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		auth:        auth,
	}
}

// TeacherLogin authenticates a teacher and issues a token.
func (s *AccountService) TeacherLogin(ctx context.Context, email, password string) (*model.TeacherLoginResponse, error) {
	teacher, err := s.teacherRepo.GetByEmail(ctx, email)
	if err != nil {
		// Uniform failure: never reveal whether the email exists.
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(teacher.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateTeacherToken(teacher)
	if err != nil {
		return nil, fmt.Errorf("issue teacher token: %w", err)
	}
	return &model.TeacherLoginResponse{Token: token, Teacher: *teacher}, nil
}

// CreateTeacher registers a teacher account with a hashed password.
func (s *AccountService) CreateTeacher(ctx context.Context, email, name, password string) (*model.Teacher, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	teacher := &model.Teacher{Email: email, Name: name, PasswordHash: hash}
	if err := s.teacherRepo.Create(ctx, teacher); err != nil {
		return nil, fmt.Errorf("create teacher: %w", err)
	}
	return teacher, nil
}

// RegisterStudent creates a lightweight student identity and issues a
// token. Students have no password; the display name is all a classroom
// needs.
func (s *AccountService) RegisterStudent(ctx context.Context, name string) (*model.StudentRegisterResponse, error) {
	student := &model.Student{Name: name}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	token, err := s.auth.GenerateStudentToken(student)
	if err != nil {
		return nil, fmt.Errorf("issue student token: %w", err)
	}
	return &model.StudentRegisterResponse{Token: token, Student: *student}, nil
}

// GuestToken issues an anonymous token for individual-mode play.
func (s *AccountService) GuestToken(displayName string) (*model.GuestTokenResponse, error) {
	token, err := s.auth.GenerateGuestToken(displayName)
	if err != nil {
		return nil, fmt.Errorf("issue guest token: %w", err)
	}
	return &model.GuestTokenResponse{Token: token}, nil
}

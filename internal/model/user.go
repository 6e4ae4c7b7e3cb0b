package model

import "time"

// Teacher represents a teacher account.
type Teacher struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TeacherLoginRequest is the payload for teacher authentication.
type TeacherLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// TeacherLoginResponse is returned after successful teacher login.
type TeacherLoginResponse struct {
	Token   string  `json:"token"`
	Teacher Teacher `json:"teacher"`
}

// Student represents a student identity. Students register with just a
// display name; there is no password flow for them.
type Student struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentRegisterRequest is the payload for student registration.
type StudentRegisterRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// StudentRegisterResponse is returned after successful student registration.
type StudentRegisterResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// GuestTokenResponse is returned for anonymous individual-mode play.
type GuestTokenResponse struct {
	Token string `json:"token"`
}

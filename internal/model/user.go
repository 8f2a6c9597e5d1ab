package model

import "time"

// Role identifies which authority a user acts as.
type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleAdmin         Role = "admin"
	RoleExaminer      Role = "examiner"
	RoleTrafficPolice Role = "traffic_police"
)

// User is any account of the system: exam taker, administrator, examiner
// or traffic police officer.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

package models

import "time"

// REST resource models. Schemas are owned by the backend; only the fields
// the client reads are declared here.

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Course    string `json:"course,omitempty"`
	Year      int    `json:"year,omitempty"`
}

type UserStats struct {
	Posts     int `json:"posts"`
	Groups    int `json:"groups"`
	Likes     int `json:"likes"`
	Followers int `json:"followers"`
}

type Post struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Content    string    `json:"content"`
	Category   string    `json:"category,omitempty"`
	LikeCount  int       `json:"likeCount"`
	SaveCount  int       `json:"saveCount"`
	Liked      bool      `json:"liked"`
	Saved      bool      `json:"saved"`
	CreatedAt  time.Time `json:"createdAt"`
}

type StudyGroup struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"ownerId"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

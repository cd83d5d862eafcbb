package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the local credential record behind the auth endpoints. The
// public author identity lives in User; accounts are never exposed in post
// or comment payloads.
type Account struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Role         string `gorm:"not null;default:user" json:"role"` // "user" or "admin"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// User is auto-provisioned on the first authenticated write for an email the
// table has not seen. Nothing in the API updates or deletes a User.
type User struct {
	ID     string `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	Email  string `gorm:"unique;not null" json:"email"`
	Avatar string `json:"avatar"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Post struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	AuthorID           string    `gorm:"not null;index" json:"author_id"`
	Author             User      `gorm:"foreignKey:AuthorID" json:"author"`
	Title              string    `gorm:"not null" json:"title"`
	Content            string    `gorm:"type:text" json:"content"` // markdown
	Excerpt            string    `gorm:"type:text" json:"excerpt"`
	Images             []string  `gorm:"serializer:json" json:"images"`
	ScriptureVerse     string    `json:"scripture_verse"`
	ScriptureReference string    `json:"scripture_reference"`
	Category           string    `gorm:"index" json:"category"`
	Tags               []string  `gorm:"serializer:json" json:"tags"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Comments           []Comment `gorm:"constraint:OnDelete:CASCADE" json:"comments"`
	Likes              []Like    `gorm:"constraint:OnDelete:CASCADE" json:"likes"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Comment is immutable once created; there is no edit or delete path.
type Comment struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"not null;index" json:"post_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Like holds at most one row per (post, user) pair; the composite unique
// index keeps that true even when two toggles race.
type Like struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Package views reshapes store rows into the camelCase payloads the API
// returns. Every endpoint goes through these builders so the mapping from
// foreign keys to nested objects lives in one place.
package views

import (
	"bytes"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"selah/models"
)

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Scripture struct {
	Verse     string `json:"verse"`
	Reference string `json:"reference"`
}

// Ref is the identifier-only shape the post list uses for child records.
type Ref struct {
	ID string `json:"id"`
}

type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	User      UserSummary `json:"user"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostSummary is the list-view shape: author summary plus identifier-only
// comment and like refs.
type PostSummary struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Excerpt   string      `json:"excerpt"`
	Author    UserSummary `json:"author"`
	Images    []string    `json:"images"`
	Scripture *Scripture  `json:"scripture,omitempty"`
	Category  string      `json:"category"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Comments  []Ref       `json:"comments"`
	Likes     []Ref       `json:"likes"`
}

// Post is the single-post shape with fully nested comments and likes.
type Post struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	ContentHTML string      `json:"contentHtml"`
	Excerpt     string      `json:"excerpt"`
	Author      UserSummary `json:"author"`
	Images      []string    `json:"images"`
	Scripture   *Scripture  `json:"scripture,omitempty"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Comments    []Comment   `json:"comments"`
	Likes       []Like      `json:"likes"`
}

func NewUserSummary(user models.User) UserSummary {
	return UserSummary{
		ID:     user.ID,
		Name:   user.Name,
		Avatar: user.Avatar,
	}
}

func NewComment(comment models.Comment) Comment {
	return Comment{
		ID:        comment.ID,
		PostID:    comment.PostID,
		User:      NewUserSummary(comment.User),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

func NewLike(like models.Like) Like {
	return Like{
		ID:        like.ID,
		PostID:    like.PostID,
		UserID:    like.UserID,
		CreatedAt: like.CreatedAt,
	}
}

func NewPostSummary(post models.Post) PostSummary {
	comments := make([]Ref, len(post.Comments))
	for i, comment := range post.Comments {
		comments[i] = Ref{ID: comment.ID}
	}

	likes := make([]Ref, len(post.Likes))
	for i, like := range post.Likes {
		likes[i] = Ref{ID: like.ID}
	}

	return PostSummary{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Author:    NewUserSummary(post.Author),
		Images:    orEmpty(post.Images),
		Scripture: scriptureOf(post),
		Category:  post.Category,
		Tags:      orEmpty(post.Tags),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
		Comments:  comments,
		Likes:     likes,
	}
}

func NewPost(post models.Post) Post {
	comments := make([]Comment, len(post.Comments))
	for i, comment := range post.Comments {
		comments[i] = NewComment(comment)
	}

	likes := make([]Like, len(post.Likes))
	for i, like := range post.Likes {
		likes[i] = NewLike(like)
	}

	return Post{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		ContentHTML: renderMarkdown(post.Content),
		Excerpt:     post.Excerpt,
		Author:      NewUserSummary(post.Author),
		Images:      orEmpty(post.Images),
		Scripture:   scriptureOf(post),
		Category:    post.Category,
		Tags:        orEmpty(post.Tags),
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
		Comments:    comments,
		Likes:       likes,
	}
}

// scriptureOf folds the two scripture columns into one optional object.
func scriptureOf(post models.Post) *Scripture {
	if post.ScriptureVerse == "" {
		return nil
	}
	return &Scripture{
		Verse:     post.ScriptureVerse,
		Reference: post.ScriptureReference,
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

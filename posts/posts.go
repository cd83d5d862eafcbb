package posts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"selah/apperr"
	"selah/auth"
	"selah/models"
	"selah/views"
)

type PostsModule struct {
	db       *gorm.DB
	resolver *auth.Resolver
	admins   auth.AdminPolicy
}

func NewPostsModule(db *gorm.DB, resolver *auth.Resolver, admins auth.AdminPolicy) *PostsModule {
	return &PostsModule{db: db, resolver: resolver, admins: admins}
}

func (p *PostsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/posts", p.listPosts)
	router.POST("/posts", p.createPost)
	router.GET("/posts/:id", p.getPost)
	router.DELETE("/posts/:id", p.deletePost)
}

func (p *PostsModule) listPosts(c *gin.Context) {
	var posts []models.Post
	err := p.db.Preload("Author").
		Preload("Comments").
		Preload("Likes").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to fetch posts", err))
		return
	}

	summaries := make([]views.PostSummary, len(posts))
	for i, post := range posts {
		summaries[i] = views.NewPostSummary(post)
	}

	c.JSON(http.StatusOK, summaries)
}

func (p *PostsModule) getPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	err := p.db.Preload("Author").
		Preload("Comments.User").
		Preload("Likes").
		First(&post, "id = ?", postID).Error
	if err == gorm.ErrRecordNotFound {
		apperr.Handle(c, apperr.New(apperr.NotFound, "post not found"))
		return
	}
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to fetch post", err))
		return
	}

	c.JSON(http.StatusOK, views.NewPost(post))
}

type createPostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt"`
	AuthorName string   `json:"authorName"`
	Images     []string `json:"images"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Scripture  *struct {
		Verse     string `json:"verse"`
		Reference string `json:"reference"`
	} `json:"scripture"`
}

func (p *PostsModule) createPost(c *gin.Context) {
	id, err := p.resolver.Identify(c)
	if err != nil {
		apperr.Handle(c, err)
		return
	}
	if !p.admins.IsAdmin(id) {
		apperr.Handle(c, apperr.New(apperr.Forbidden, "administrator access required"))
		return
	}

	var request createPostRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.BadRequest, "invalid request body", err))
		return
	}
	if request.Title == "" {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "title is required"))
		return
	}

	user, err := p.resolver.Provision(id, request.AuthorName)
	if err != nil {
		apperr.Handle(c, err)
		return
	}

	post := models.Post{
		AuthorID: user.ID,
		Title:    request.Title,
		Content:  request.Content,
		Excerpt:  request.Excerpt,
		Images:   request.Images,
		Category: request.Category,
		Tags:     request.Tags,
	}
	if post.Images == nil {
		post.Images = []string{}
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if request.Scripture != nil {
		post.ScriptureVerse = request.Scripture.Verse
		post.ScriptureReference = request.Scripture.Reference
	}

	if err := p.db.Create(&post).Error; err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to create post", err))
		return
	}

	post.Author = *user
	c.JSON(http.StatusCreated, views.NewPostSummary(post))
}

func (p *PostsModule) deletePost(c *gin.Context) {
	postID := c.Param("id")

	id, err := p.resolver.Identify(c)
	if err != nil {
		apperr.Handle(c, err)
		return
	}

	var post models.Post
	err = p.db.Preload("Author").First(&post, "id = ?", postID).Error
	if err == gorm.ErrRecordNotFound {
		apperr.Handle(c, apperr.New(apperr.NotFound, "post not found"))
		return
	}
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to fetch post", err))
		return
	}

	if post.Author.Email != id.Email && !p.admins.IsAdmin(id) {
		apperr.Handle(c, apperr.New(apperr.Forbidden, "not allowed to delete this post"))
		return
	}

	// Select(clause.Associations) removes the post's comments and likes in
	// the same delete.
	if err := p.db.Select(clause.Associations).Delete(&post).Error; err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to delete post", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

package reactions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"selah/apperr"
	"selah/auth"
	"selah/models"
	"selah/views"
)

// ReactionsModule owns comments and likes, the child records of a post.
type ReactionsModule struct {
	db       *gorm.DB
	resolver *auth.Resolver
}

func NewReactionsModule(db *gorm.DB, resolver *auth.Resolver) *ReactionsModule {
	return &ReactionsModule{db: db, resolver: resolver}
}

func (m *ReactionsModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/comments", m.addComment)
	router.POST("/likes", m.toggleLike)
	router.GET("/likes", m.likeCount)
}

func (m *ReactionsModule) addComment(c *gin.Context) {
	user, _, err := m.resolver.Resolve(c)
	if err != nil {
		apperr.Handle(c, err)
		return
	}

	var request struct {
		PostID  string `json:"postId"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.BadRequest, "invalid request body", err))
		return
	}
	if request.PostID == "" || request.Content == "" {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "postId and content are required"))
		return
	}

	if err := m.postExists(request.PostID); err != nil {
		apperr.Handle(c, err)
		return
	}

	comment := models.Comment{
		PostID:  request.PostID,
		UserID:  user.ID,
		Content: request.Content,
	}
	if err := m.db.Create(&comment).Error; err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to create comment", err))
		return
	}

	comment.User = *user
	c.JSON(http.StatusCreated, views.NewComment(comment))
}

// toggleLike flips the like state for (post, acting user). The check and the
// insert run in one transaction, and the composite unique index backstops
// them: a toggle that loses an insert race sees the duplicate-key error and
// reports the pair as already liked instead of writing a second row.
func (m *ReactionsModule) toggleLike(c *gin.Context) {
	user, _, err := m.resolver.Resolve(c)
	if err != nil {
		apperr.Handle(c, err)
		return
	}

	var request struct {
		PostID string `json:"postId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.BadRequest, "invalid request body", err))
		return
	}
	if request.PostID == "" {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "postId is required"))
		return
	}

	if err := m.postExists(request.PostID); err != nil {
		apperr.Handle(c, err)
		return
	}

	var liked bool
	var like models.Like

	err = m.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", request.PostID, user.ID).
			First(&existing).Error
		if err == nil {
			liked = false
			return tx.Delete(&existing).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		like = models.Like{PostID: request.PostID, UserID: user.ID}
		if err := tx.Create(&like).Error; err != nil {
			if !isDuplicate(err) {
				return err
			}
			// Lost the race: the row is already there, report it.
			if err := tx.Where("post_id = ? AND user_id = ?", request.PostID, user.ID).
				First(&like).Error; err != nil {
				return err
			}
		}
		liked = true
		return nil
	})
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to toggle like", err))
		return
	}

	if !liked {
		c.JSON(http.StatusOK, gin.H{"liked": false, "message": "Post unliked"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"liked":   true,
		"message": "Post liked",
		"like":    views.NewLike(like),
	})
}

func (m *ReactionsModule) likeCount(c *gin.Context) {
	postID := c.Query("postId")
	if postID == "" {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "postId is required"))
		return
	}

	var count int64
	err := m.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to count likes", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (m *ReactionsModule) postExists(postID string) error {
	var post models.Post
	err := m.db.Select("id").First(&post, "id = ?", postID).Error
	if err == gorm.ErrRecordNotFound {
		return apperr.New(apperr.NotFound, "post not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to fetch post", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

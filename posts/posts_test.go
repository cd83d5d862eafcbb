package posts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"selah/auth"
	"selah/models"
	"selah/views"
)

const testSecret = "token-secret"

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{})
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	resolver := auth.NewResolver(db, auth.NewTokenOracle(testSecret))
	admins := auth.AnyOf(auth.NewEmailAllowlist("admin@example.com"), auth.RoleClaim{})

	postsModule := NewPostsModule(db, resolver, admins)
	postsModule.RegisterRoutes(router)
	return router
}

func mintToken(email, name, role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"name":  name,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testSecret))
	return signed
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestUser(db *gorm.DB, email string) *models.User {
	user := &models.User{
		Name:   "Test User",
		Email:  email,
		Avatar: "https://example.com/avatar.png",
	}
	db.Create(user)
	return user
}

func createTestPost(db *gorm.DB, authorID string, createdAt time.Time) *models.Post {
	post := &models.Post{
		AuthorID:  authorID,
		Title:     "Test Post",
		Content:   "Some **markdown** content.",
		Excerpt:   "Some excerpt.",
		Images:    []string{},
		Category:  "Faith",
		Tags:      []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	db.Create(post)
	return post
}

func TestListPosts_Empty(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	w := doJSON(router, "GET", "/posts", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestListPosts_NewestFirst(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author@example.com")
	older := createTestPost(db, user.ID, time.Now().Add(-time.Hour))
	newer := createTestPost(db, user.ID, time.Now())

	w := doJSON(router, "GET", "/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var summaries []views.PostSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].ID)
	assert.Equal(t, older.ID, summaries[1].ID)
	assert.Equal(t, "Test User", summaries[0].Author.Name)
}

func TestListPosts_ChildRefsAreIdentifiersOnly(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author@example.com")
	reader := createTestUser(db, "reader@example.com")
	post := createTestPost(db, author.ID, time.Now())

	db.Create(&models.Comment{PostID: post.ID, UserID: reader.ID, Content: "Amen"})
	db.Create(&models.Like{PostID: post.ID, UserID: reader.ID})

	w := doJSON(router, "GET", "/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var summaries []views.PostSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Len(t, summaries[0].Comments, 1)
	assert.Len(t, summaries[0].Likes, 1)
	assert.NotEmpty(t, summaries[0].Comments[0].ID)
}

func TestGetPost_NotFound(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	w := doJSON(router, "GET", "/posts/no-such-id", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPost_FullNested(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author@example.com")
	reader := createTestUser(db, "reader@example.com")
	post := createTestPost(db, author.ID, time.Now())

	db.Create(&models.Comment{PostID: post.ID, UserID: reader.ID, Content: "Amen"})
	db.Create(&models.Like{PostID: post.ID, UserID: reader.ID})

	w := doJSON(router, "GET", "/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got views.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, author.ID, got.Author.ID)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Amen", got.Comments[0].Content)
	assert.Equal(t, "Test User", got.Comments[0].User.Name)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, reader.ID, got.Likes[0].UserID)
	assert.Contains(t, got.ContentHTML, "<strong>markdown</strong>")
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	w := doJSON(router, "POST", "/posts", "", gin.H{"title": "T"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreatePost_NonAdminForbidden(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	token := mintToken("reader@example.com", "Reader", "user")
	w := doJSON(router, "POST", "/posts", token, gin.H{"title": "T"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePost_RoundTrip(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	token := mintToken("admin@example.com", "Admin", "user")
	w := doJSON(router, "POST", "/posts", token, gin.H{
		"title":    "T",
		"content":  "C",
		"excerpt":  "E",
		"category": "Faith",
		"images":   []string{"a", "b"},
		"tags":     []string{"x", "y"},
		"scripture": gin.H{
			"verse":     "Be still, and know that I am God.",
			"reference": "Psalm 46:10",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created views.PostSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Admin", created.Author.Name)

	w = doJSON(router, "GET", "/posts/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got views.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"a", "b"}, got.Images)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	require.NotNil(t, got.Scripture)
	assert.Equal(t, "Be still, and know that I am God.", got.Scripture.Verse)
	assert.Equal(t, "Psalm 46:10", got.Scripture.Reference)
}

func TestCreatePost_DefaultsWhenOmitted(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	token := mintToken("admin@example.com", "Admin", "user")
	w := doJSON(router, "POST", "/posts", token, gin.H{
		"title":    "T",
		"content":  "C",
		"excerpt":  "E",
		"category": "Faith",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created views.PostSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, "GET", "/posts/"+created.ID, "", nil)
	var got views.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, []string{}, got.Tags)
	assert.Nil(t, got.Scripture)
}

func TestCreatePost_FirstTimeAuthorNameFromEmail(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	// First-time author: no name claim, so the local part of the email wins.
	token := mintToken("u@example.com", "", "admin")
	w := doJSON(router, "POST", "/posts", token, gin.H{
		"title":    "T",
		"content":  "C",
		"excerpt":  "E",
		"category": "Faith",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created views.PostSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "u", created.Author.Name)

	var user models.User
	require.NoError(t, db.Where("email = ?", "u@example.com").First(&user).Error)
	assert.Equal(t, "u", user.Name)
}

func TestCreatePost_MissingTitle(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	token := mintToken("admin@example.com", "Admin", "user")
	w := doJSON(router, "POST", "/posts", token, gin.H{"content": "C"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePost_Unauthenticated(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author@example.com")
	post := createTestPost(db, user.ID, time.Now())

	w := doJSON(router, "DELETE", "/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeletePost_NotFound(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	token := mintToken("anyone@example.com", "", "user")
	w := doJSON(router, "DELETE", "/posts/no-such-id", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePost_ForbiddenForStranger(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author@example.com")
	post := createTestPost(db, user.ID, time.Now())

	token := mintToken("stranger@example.com", "", "user")
	w := doJSON(router, "DELETE", "/posts/"+post.ID, token, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeletePost_AuthorCascades(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	author := createTestUser(db, "author@example.com")
	reader := createTestUser(db, "reader@example.com")
	post := createTestPost(db, author.ID, time.Now())
	db.Create(&models.Comment{PostID: post.ID, UserID: reader.ID, Content: "Amen"})
	db.Create(&models.Like{PostID: post.ID, UserID: reader.ID})

	token := mintToken("author@example.com", "", "user")
	w := doJSON(router, "DELETE", "/posts/"+post.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var posts, comments, likes int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	db.Model(&models.Like{}).Count(&likes)
	assert.Equal(t, int64(0), posts)
	assert.Equal(t, int64(0), comments)
	assert.Equal(t, int64(0), likes)
}

func TestDeletePost_AdminByRoleClaim(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author@example.com")
	post := createTestPost(db, user.ID, time.Now())

	token := mintToken("moderator@example.com", "", "admin")
	w := doJSON(router, "DELETE", "/posts/"+post.ID, token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeletePost_AdminByAllowlist(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(db)

	user := createTestUser(db, "author@example.com")
	post := createTestPost(db, user.ID, time.Now())

	token := mintToken("admin@example.com", "", "user")
	w := doJSON(router, "DELETE", "/posts/"+post.ID, token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

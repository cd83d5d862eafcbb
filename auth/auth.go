package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"selah/apperr"
	"selah/models"
)

// AuthModule owns the local account endpoints. Signing in mints the signed
// credential that the rest of the API treats as opaque; it rides in the
// session cookie and can also be replayed as a bearer token.
type AuthModule struct {
	db     *gorm.DB
	oracle *tokenOracle
}

func NewAuthModule(db *gorm.DB, tokenSecret string) *AuthModule {
	return &AuthModule{
		db:     db,
		oracle: &tokenOracle{secret: []byte(tokenSecret)},
	}
}

// Oracle exposes the verifier side of the module's credential scheme.
func (a *AuthModule) Oracle() Oracle {
	return a.oracle
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", a.signup)
		authGroup.POST("/login", a.login)
		authGroup.POST("/logout", a.logout)
	}
}

func (a *AuthModule) signup(c *gin.Context) {
	var request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.BadRequest, "invalid request body", err))
		return
	}
	if request.Email == "" || request.Password == "" {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "email and password are required"))
		return
	}

	var existing models.Account
	if err := a.db.Where("email = ?", request.Email).First(&existing).Error; err == nil {
		apperr.Handle(c, apperr.New(apperr.BadRequest, "email already registered"))
		return
	}

	passwordHash, err := hashPassword(request.Password)
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to create account", err))
		return
	}

	account := models.Account{
		Email:        request.Email,
		PasswordHash: passwordHash,
		Name:         request.Name,
		Role:         "user",
	}
	if err := a.db.Create(&account).Error; err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to create account", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    account.ID,
		"email": account.Email,
		"name":  account.Name,
	})
}

func (a *AuthModule) login(c *gin.Context) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.BadRequest, "invalid request body", err))
		return
	}

	var account models.Account
	if err := a.db.Where("email = ?", request.Email).First(&account).Error; err != nil {
		apperr.Handle(c, apperr.New(apperr.Unauthorized, "invalid email or password"))
		return
	}

	if !checkPasswordHash(request.Password, account.PasswordHash) {
		apperr.Handle(c, apperr.New(apperr.Unauthorized, "invalid email or password"))
		return
	}

	credential, err := a.oracle.issue(&account)
	if err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to issue credential", err))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionCredentialKey, credential)
	if err := session.Save(); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to save session", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": credential})
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apperr.Handle(c, apperr.Wrap(apperr.Internal, "failed to clear session", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

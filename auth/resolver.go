package auth

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"selah/apperr"
	"selah/models"
)

const sessionCredentialKey = "credential"

// Resolver turns an inbound request into a verified identity and the
// matching User row, creating the row on first contact.
type Resolver struct {
	db     *gorm.DB
	oracle Oracle
}

func NewResolver(db *gorm.DB, oracle Oracle) *Resolver {
	return &Resolver{db: db, oracle: oracle}
}

// Identify extracts the session credential and verifies it with the oracle.
// It touches no tables, so handlers can reject unauthenticated callers
// before reading the request body.
func (r *Resolver) Identify(c *gin.Context) (*Identity, error) {
	credential := credentialFrom(c)
	if credential == "" {
		return nil, apperr.New(apperr.Unauthorized, "sign in required")
	}
	return r.oracle.Verify(credential)
}

// Resolve is Identify plus provisioning with no explicit display name.
func (r *Resolver) Resolve(c *gin.Context) (*models.User, *Identity, error) {
	id, err := r.Identify(c)
	if err != nil {
		return nil, nil, err
	}
	user, err := r.Provision(id, "")
	if err != nil {
		return nil, nil, err
	}
	return user, id, nil
}

// Provision returns the User row for the identity's email, inserting one if
// none exists. Existing rows are never updated here. explicitName is the
// request-supplied display name a first write may carry; it outranks the
// oracle's claim.
func (r *Resolver) Provision(id *Identity, explicitName string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", id.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "failed to load user", err)
	}

	user = models.User{
		Name:   displayName(id, explicitName),
		Email:  id.Email,
		Avatar: avatarURL(id),
	}
	if err := r.db.Create(&user).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to create user", err)
	}
	return &user, nil
}

// credentialFrom prefers a bearer token, then falls back to the session
// cookie set at login.
func credentialFrom(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if v, exists := c.Get(sessions.DefaultKey); exists {
		if session, ok := v.(sessions.Session); ok {
			if credential, ok := session.Get(sessionCredentialKey).(string); ok {
				return credential
			}
		}
	}
	return ""
}

func displayName(id *Identity, explicitName string) string {
	if explicitName != "" {
		return explicitName
	}
	if id.Name != "" {
		return id.Name
	}
	if local := strings.SplitN(id.Email, "@", 2)[0]; local != "" {
		return local
	}
	return "User"
}

func avatarURL(id *Identity) string {
	if id.Avatar != "" {
		return id.Avatar
	}
	seed := xxhash.Sum64String(id.Email)
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%016x", seed)
}

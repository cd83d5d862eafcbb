package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"selah/apperr"
	"selah/models"
)

// Identity is the verified claim set an Oracle hands back for a credential.
type Identity struct {
	Email  string
	Name   string
	Avatar string
	Role   string
}

// Oracle validates an opaque session credential. Callers never look inside
// the credential; they only see the Identity or an Unauthorized error.
type Oracle interface {
	Verify(credential string) (*Identity, error)
}

const tokenTTL = 24 * time.Hour

type tokenOracle struct {
	secret []byte
}

func NewTokenOracle(secret string) Oracle {
	return &tokenOracle{secret: []byte(secret)}
}

func (o *tokenOracle) Verify(credential string) (*Identity, error) {
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return o.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid or expired credential", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "invalid or expired credential")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, apperr.New(apperr.Unauthorized, "credential carries no email")
	}

	name, _ := claims["name"].(string)
	avatar, _ := claims["avatar"].(string)
	role, _ := claims["role"].(string)

	return &Identity{Email: email, Name: name, Avatar: avatar, Role: role}, nil
}

func (o *tokenOracle) issue(account *models.Account) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":  account.Email,
		"name":   account.Name,
		"avatar": account.Avatar,
		"role":   account.Role,
		"exp":    time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(o.secret)
}

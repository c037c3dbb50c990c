// Package auth provides JWT-based client identification for the HTTP
// surface. On login and registration the handlers issue a signed cookie
// carrying the user id; the middleware reads it back (from the cookie or
// the Authorization header) and puts the id on the request context.
//
// The durable session of record is the store's current_user pointer; the
// cookie only lets the browser client be recognized across requests.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

type userFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, bool, error)
}

// Auth issues and verifies the signed session cookie.
type Auth struct {
	db userFinder

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte
}

// Claims embeds the standard JWT claims and adds the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key under which the authenticated user's id is stored.
const UserIDKey ContextKey = "userID"

// New creates an Auth handler with the given user lookup, cookie name, and
// signing secret.
func New(
	db userFinder,
	authCookieName string,
	authCookieSigningSecretKey []byte,
) *Auth {
	return &Auth{
		db:                         db,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
	}
}

// IssueCookie signs a JWT for the given user id and sets it both as a
// cookie and as the Authorization response header.
func (a *Auth) IssueCookie(response http.ResponseWriter, userID string) error {
	JWTString, err := a.buildJWTString(&Claims{UserID: userID})
	if err != nil {
		return err
	}

	response.Header().Set("Authorization", JWTString)

	http.SetCookie(
		response,
		&http.Cookie{
			Name:  a.authCookieName,
			Value: JWTString,
		},
	)

	return nil
}

// DropCookie expires the session cookie on logout.
func (a *Auth) DropCookie(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:   a.authCookieName,
			Value:  "",
			MaxAge: -1,
		},
	)
}

// AuthenticateUser is an HTTP middleware that reads the JWT from the
// Authorization header or the cookie, verifies the user still exists, and
// stores the user id in the request context. Requests without a valid
// token pass through with an empty id.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.getUserIDFromAuthorizationHeaderOrCookie(request)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.getUserIDFromAuthorizationHeaderOrCookie()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}

		if userID != "" {
			_, found, err := a.db.FindUserByID(request.Context(), userID)
			if err != nil {
				logger.Log.Debugln("Error calling the `a.db.FindUserByID()`: ", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			if !found {
				userID = ""
			}
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

// RequireUser is an HTTP middleware that rejects requests whose context
// carries no authenticated user id.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, ok := request.Context().Value(UserIDKey).(string)
		if !ok || userID == "" {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

func (a *Auth) getUserIDFromAuthorizationHeaderOrCookie(request *http.Request) (string, error) {
	tokenString := a.getTokenStringFromAuthorizationHeaderOrCookie(request)
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return "", nil
	}

	return claims.UserID, nil
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

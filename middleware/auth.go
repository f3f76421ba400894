package middleware

import (
	"net/http"
	"strings"

	"go-storefront/models"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

// AuthedHandlerFunc is a handler that receives the verified caller as an
// explicit argument.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, caller models.Caller)

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(token string) (models.Caller, error)
}

// Gate wraps handlers that need a caller.
type Gate struct {
	auth Authenticator
	log  logrus.FieldLogger
}

func NewGate(auth Authenticator, log logrus.FieldLogger) *Gate {
	return &Gate{auth: auth, log: log}
}

// Authenticated verifies the bearer token and hands the caller to next.
func (g *Gate) Authenticated(next AuthedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := g.caller(w, r)
		if !ok {
			return
		}
		next(w, r, caller)
	})
}

// AdminOnly is Authenticated plus a check of the admin role.
func (g *Gate) AdminOnly(next AuthedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := g.caller(w, r)
		if !ok {
			return
		}
		if !caller.IsAdmin {
			utils.WriteError(w, g.log, utils.ForbiddenError("Access denied"))
			return
		}
		next(w, r, caller)
	})
}

func (g *Gate) caller(w http.ResponseWriter, r *http.Request) (models.Caller, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		utils.WriteError(w, g.log, utils.UnauthorizedError("Authorization header missing"))
		return models.Caller{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		utils.WriteError(w, g.log, utils.UnauthorizedError("Invalid Authorization header format"))
		return models.Caller{}, false
	}

	caller, err := g.auth.Authenticate(parts[1])
	if err != nil {
		utils.WriteError(w, g.log, err)
		return models.Caller{}, false
	}
	return caller, true
}

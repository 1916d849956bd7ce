package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgDuplicateEmail   = "Email already exists!!!"
	msgEmailNotValid    = "Email is not valid!!!"
	msgEmailValid       = "Email is valid"
	msgPasswordNotValid = "Password is not valid"
	msgCannotSignIn     = "Can not sign in now!!!"
	msgUserNotFound     = "User not found"
	msgLoggedOut        = "Log out successfully"
	msgEmailInvalid     = "Email invalid!!!!"
	msgTokenInvalid     = "Token invalid!!!"
	msgRequestInvalid   = "Request invalid!!!"
	msgInternal         = "internal error"
)

// errorCase maps a service error to a response for one endpoint.
type errorCase struct {
	err    error
	status int
	msg    string
}

// respondError writes the first matching case, or 500 for anything else.
func (s *HTTPServer) respondError(c *gin.Context, err error, cases ...errorCase) {
	for _, ec := range cases {
		if errors.Is(err, ec.err) {
			c.String(ec.status, ec.msg)
			return
		}
	}

	s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, msgInternal)
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type signUpResponse struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type loginResponse struct {
	UserID                 string               `json:"userID"`
	Email                  string               `json:"email"`
	Avatar                 string               `json:"avatar"`
	Token                  string               `json:"token"`
	CurrentDocumentReading *models.Document     `json:"currentDocumentReading"`
	Collections            []*models.Collection `json:"collections"`
	Documents              []*models.Document   `json:"documents"`
}

func (s *HTTPServer) strongPassword(c *gin.Context) {
	pw, err := common.GenerateStrongPassword(common.StrongPasswordLength)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.String(http.StatusOK, pw)
}

func (s *HTTPServer) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	user, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err,
			errorCase{common.ErrDuplicateEmail, http.StatusBadRequest, msgDuplicateEmail},
			errorCase{common.ErrInvalidRequest, http.StatusBadRequest, msgRequestInvalid},
		)
		return
	}

	c.JSON(http.StatusCreated, signUpResponse{UserID: user.ID, Email: user.Email, Avatar: user.Avatar})
}

func (s *HTTPServer) loginStep1(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	ok, err := s.auth.EmailExists(c.Request.Context(), req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !ok {
		c.String(http.StatusBadRequest, msgEmailNotValid)
		return
	}

	c.String(http.StatusOK, msgEmailValid)
}

func (s *HTTPServer) loginStep2(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err,
			errorCase{common.ErrUnknownEmail, http.StatusBadRequest, msgEmailNotValid},
			errorCase{common.ErrInvalidCredentials, http.StatusBadRequest, msgPasswordNotValid},
			errorCase{common.ErrSessionAlreadyActive, http.StatusForbidden, msgCannotSignIn},
		)
		return
	}

	c.SetCookie(common.RefreshTokenCookieName, res.RefreshToken, int(res.RefreshMaxAge.Seconds()),
		"/", s.cookie.Domain, s.cookie.Secure, true)

	c.JSON(http.StatusOK, loginResponse{
		UserID:                 res.User.ID,
		Email:                  res.User.Email,
		Avatar:                 res.User.Avatar,
		Token:                  res.AccessToken,
		CurrentDocumentReading: res.CurrentDocument,
		Collections:            res.Library.Collections,
		Documents:              res.Library.Documents,
	})
}

func (s *HTTPServer) logout(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	if err := s.auth.Logout(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err,
			errorCase{common.ErrUserNotFound, http.StatusNotFound, msgUserNotFound},
		)
		return
	}

	c.String(http.StatusOK, msgLoggedOut)
}

func (s *HTTPServer) forgotPasswordStep1(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	if err := s.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err,
			errorCase{common.ErrInvalidEmail, http.StatusBadRequest, msgEmailInvalid},
		)
		return
	}

	// the body is filler; the token only travels by email
	filler, err := common.GenerateStrongPassword(common.StrongPasswordLength)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.String(http.StatusOK, filler)
}

func (s *HTTPServer) forgotPasswordStep2(c *gin.Context) {
	if err := s.auth.VerifyResetToken(c.Request.Context(), c.Query("token")); err != nil {
		s.respondError(c, err,
			errorCase{common.ErrInvalidToken, http.StatusBadRequest, msgTokenInvalid},
		)
		return
	}

	c.Status(http.StatusOK)
}

func (s *HTTPServer) forgotPasswordStep3(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgRequestInvalid)
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), c.Query("token"), req.Password); err != nil {
		s.respondError(c, err,
			errorCase{common.ErrInvalidToken, http.StatusBadRequest, msgRequestInvalid},
			errorCase{common.ErrInvalidRequest, http.StatusBadRequest, msgRequestInvalid},
		)
		return
	}

	c.Status(http.StatusOK)
}

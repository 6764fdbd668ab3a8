package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type messageResponse struct {
	Message string              `json:"message"`
	Errors  []common.FieldError `json:"errors,omitempty"`
}

// outcomeResponse is the JSON shape of services.Authenticated.
type outcomeResponse struct {
	Message         string     `json:"message,omitempty"`
	IsAuthenticated bool       `json:"is_authenticated"`
	UserName        string     `json:"username"`
	Email           string     `json:"email"`
	Roles           []string   `json:"roles"`
	Token           string     `json:"token,omitempty"`
	ExpiresOn       *time.Time `json:"expires_on,omitempty"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "malformed request body"})
		return
	}

	out, err := s.service.Register(c.Request.Context(), req)
	s.writeOutcome(c, out, err, http.StatusBadRequest)
}

func (s *HTTPServer) login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "malformed request body"})
		return
	}

	out, err := s.service.Login(c.Request.Context(), req)
	s.writeOutcome(c, out, err, http.StatusBadRequest)
}

func (s *HTTPServer) me(c *gin.Context) {
	claims, _ := c.MustGet(claimsKey).(auth.ClaimSet)

	out, err := s.service.Me(c.Request.Context(), claims)
	s.writeOutcome(c, out, err, http.StatusUnauthorized)
}

// writeOutcome maps an outcome to a response: Authenticated is 200,
// Rejected is rejectStatus, an error is 500 with a generic message.
func (s *HTTPServer) writeOutcome(c *gin.Context, out services.Outcome, err error, rejectStatus int) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}

	switch o := out.(type) {
	case *services.Authenticated:
		resp := outcomeResponse{
			IsAuthenticated: true,
			UserName:        o.UserName,
			Email:           o.Email,
			Roles:           o.Roles,
			Token:           o.Token,
		}
		if resp.Roles == nil {
			resp.Roles = []string{}
		}
		if !o.ExpiresOn.IsZero() {
			exp := o.ExpiresOn.UTC()
			resp.ExpiresOn = &exp
		}
		c.JSON(http.StatusOK, resp)

	case *services.Rejected:
		resp := messageResponse{Message: o.Message()}
		var verr *common.ValidationError
		if errors.As(o.Err, &verr) {
			resp.Errors = verr.Fields
		}
		c.JSON(rejectStatus, resp)

	default:
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/streammatch/internal/app"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/server/middleware"
)

// Registrar ties the Profile service into the HTTP API
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Profile endpoints to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewProfileService(r.appCtx)

	api.GET("/profiles/me", svc.handleGetMe)
	api.PUT("/profiles/me", svc.handleUpdateMe)
	api.GET("/profiles/:id", svc.handleGet)
}

func (s *Service) handleGetMe(c *gin.Context) {
	resp, err := s.GetOrCreate(c.Request.Context(), middleware.Principal(c), middleware.PrincipalName(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleUpdateMe(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.BadRequest(c, err.Error())
		return
	}
	resp, err := s.Update(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleGet(c *gin.Context) {
	resp, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package match

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/streammatch/internal/app"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/server/middleware"
)

// Registrar ties the Match service into the HTTP API
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Match endpoints to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewMatchService(r.appCtx)

	api.GET("/matches", svc.handleList)
	api.GET("/matches/:id", svc.handleGet)
}

func (s *Service) handleList(c *gin.Context) {
	var token *string
	if t := c.Query("pagination_token"); t != "" {
		token = &t
	}

	items, next, err := s.List(c.Request.Context(), middleware.Principal(c), token)
	if err != nil {
		svcErr.Respond(c, err)
		return
	}

	body := gin.H{"matches": items}
	if next != nil {
		body["next_pagination_token"] = *next
	}
	c.JSON(http.StatusOK, body)
}

func (s *Service) handleGet(c *gin.Context) {
	item, err := s.Get(c.Request.Context(), c.Param("id"), middleware.Principal(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

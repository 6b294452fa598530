package explore

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/streammatch/internal/app"
	svcErr "github.com/oggyb/streammatch/internal/errors"
	"github.com/oggyb/streammatch/internal/server/middleware"
	"github.com/oggyb/streammatch/internal/service/profile"
)

// Registrar ties the Explore service into the HTTP API
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Explore service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Explore endpoints to the API group
func (r *Registrar) Register(api *gin.RouterGroup) {
	svc := NewExploreService(r.appCtx)

	api.POST("/swipes", svc.handlePutSwipe)
	api.GET("/explore", svc.handleExplore)
	api.GET("/likes", svc.handleListLikedYou)
	api.GET("/likes/new", svc.handleListNewLikedYou)
	api.GET("/likes/count", svc.handleCountLikedYou)
}

// SwipeRequest is the JSON payload for recording a swipe.
type SwipeRequest struct {
	TargetID  string `json:"target_id" binding:"required,uuid"`
	Direction string `json:"direction" binding:"required,oneof=right left"`
}

// matchPayload is the wire shape of a match inside a swipe response.
type matchPayload struct {
	ID        string            `json:"id"`
	UserLo    string            `json:"user_lo"`
	UserHi    string            `json:"user_hi"`
	CreatedAt time.Time         `json:"created_at"`
	Profile   *profile.Response `json:"profile,omitempty"`
}

// SwipeResponse is returned by POST /swipes.
type SwipeResponse struct {
	Matched bool          `json:"matched"`
	Match   *matchPayload `json:"match,omitempty"`
}

func (s *Service) handlePutSwipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svcErr.BadRequest(c, err.Error())
		return
	}

	result, err := s.PutSwipe(
		c.Request.Context(),
		middleware.Principal(c),
		req.TargetID,
		req.Direction == DirectionRight,
	)
	if err != nil {
		svcErr.Respond(c, err)
		return
	}

	resp := SwipeResponse{Matched: result.Matched}
	if result.Match != nil {
		resp.Match = &matchPayload{
			ID:        result.Match.ID,
			UserLo:    result.Match.UserLo,
			UserHi:    result.Match.UserHi,
			CreatedAt: result.Match.CreatedAt,
		}
		if result.MatchedProfile != nil {
			p := profile.NewResponse(result.MatchedProfile)
			resp.Match.Profile = &p
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleExplore(c *gin.Context) {
	profiles, err := s.Explore(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (s *Service) handleListLikedYou(c *gin.Context) {
	likers, next, err := s.ListLikedYou(c.Request.Context(), middleware.Principal(c), tokenParam(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, likersBody(likers, next))
}

func (s *Service) handleListNewLikedYou(c *gin.Context) {
	likers, next, err := s.ListNewLikedYou(c.Request.Context(), middleware.Principal(c), tokenParam(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, likersBody(likers, next))
}

func (s *Service) handleCountLikedYou(c *gin.Context) {
	count, err := s.CountLikedYou(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		svcErr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func tokenParam(c *gin.Context) *string {
	if t := c.Query("pagination_token"); t != "" {
		return &t
	}
	return nil
}

func likersBody(likers []Liker, next *string) gin.H {
	body := gin.H{"likers": likers}
	if next != nil {
		body["next_pagination_token"] = *next
	}
	return body
}

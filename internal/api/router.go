// Package api exposes the lifecycle engine over HTTP. Actor identity comes
// from headers set by the upstream auth proxy; this layer never authenticates,
// it only carries identity through to the engine's authorization checks.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/observability"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/engine"
)

// Reader serves single-entity reads, normally through the Redis cache.
type Reader interface {
	GetAO(ctx context.Context, id string) (*models.AO, error)
	GetCandidature(ctx context.Context, id string) (*models.Candidature, error)
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
}

// Deps wires the handler set.
type Deps struct {
	Engine *engine.Engine
	Reader Reader
	Store  repository.Store
	Log    logger.Logger
	// Obs is optional; when set, action throughput and latency are recorded.
	Obs *observability.Observability
	// Health holds liveness probes by dependency name.
	Health map[string]func(context.Context) error
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(deps Deps) *gin.Engine {
	h := &handlers{
		engine: deps.Engine,
		reader: deps.Reader,
		store:  deps.Store,
		log:    deps.Log.WithFields(map[string]interface{}{"component": "api"}),
		obs:    deps.Obs,
		health: deps.Health,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", actorMiddleware())
	{
		v1.POST("/actions", h.applyAction)
		v1.POST("/aos", h.createAO)
		v1.DELETE("/aos/:id", h.deleteAO)
		v1.GET("/aos/:id", h.getAO)
		v1.GET("/aos/:id/candidatures", h.listCandidatures)
		v1.POST("/candidatures", h.createCandidature)
		v1.GET("/candidatures/:id", h.getCandidature)
		v1.GET("/candidatures/:id/interviews", h.listInterviews)
		v1.GET("/interviews/:id", h.getInterview)
	}
	return r
}

const actorKey = "actor"

// actorMiddleware extracts the caller identity from the headers the auth
// proxy sets. The system role is engine-internal and never accepted from
// the network.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Actor-Id")
		role, err := models.ParseRole(c.GetHeader("X-Actor-Role"))
		if err != nil || id == "" || role == models.RoleSystem {
			writeError(c, wferrors.NewUnauthorizedError("missing or invalid actor identity"))
			c.Abort()
			return
		}
		c.Set(actorKey, models.Actor{ID: id, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	return c.MustGet(actorKey).(models.Actor)
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// errorBody is the wire shape for every failure.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

func writeError(c *gin.Context, err error) {
	code := wferrors.CodeOf(err)
	var body errorBody
	body.Error.Code = string(code)
	var we *wferrors.WorkflowError
	if errors.As(err, &we) {
		body.Error.Message = we.Message
		body.Error.Details = we.Details
	} else {
		body.Error.Message = "internal error"
	}
	c.JSON(wferrors.HTTPStatus(code), body)
}

// Package api exposes the portal client over http.
package api

import (
	"context"
	"errors"
	"net/http"
	"seiassist-backend/internal/components/assert"
	"seiassist-backend/internal/components/telemetry"
	"seiassist-backend/internal/scrapers/sei"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	report_api_login = "api.login"
	report_api_page  = "api.page"
)

// Portal is the part of *sei.Client the api depends on.
type Portal interface {
	Login(ctx context.Context, username, password string) sei.LoginResult
	Schedule(ctx context.Context, token string) (sei.Schedule, error)
	Courses(ctx context.Context, token string) ([]sei.Course, error)
	Grades(ctx context.Context, token string) ([]sei.Grade, error)
}

type Options struct {
	// AllowOrigins lists the origins allowed by CORS, every origin is allowed when empty.
	AllowOrigins []string
	Tel          telemetry.API
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type server struct {
	portal Portal
	tel    telemetry.API
}

// NewRouter creates the gin engine serving the portal operations.
func NewRouter(portal Portal, opts Options) *gin.Engine {
	assert.NotNil(portal)
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}

	s := server{
		portal: portal,
		tel:    telemetry.NewScopedAPI("api", opts.Tel),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.logRequests())
	router.Use(cors.New(corsConfig(opts.AllowOrigins)))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.POST("/login", s.handleLogin)

	authenticated := router.Group("/")
	authenticated.Use(requireToken())
	{
		authenticated.GET("/cronograma", func(c *gin.Context) {
			schedule, err := s.portal.Schedule(c.Request.Context(), c.GetString("token"))
			s.respond(c, schedule, err)
		})
		authenticated.GET("/materias", func(c *gin.Context) {
			courses, err := s.portal.Courses(c.Request.Context(), c.GetString("token"))
			s.respond(c, courses, err)
		})
		authenticated.GET("/notas", func(c *gin.Context) {
			grades, err := s.portal.Grades(c.Request.Context(), c.GetString("token"))
			s.respond(c, grades, err)
		})
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}

func (s server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.tel.ReportDebug(
			"request",
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			time.Since(start).String(),
		)
	}
}

// requireToken reads the session token from `Authorization: Bearer <JSESSIONID>`.
func requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token não informado"})
			return
		}
		c.Set("token", token)
		c.Next()
	}
}

func (s server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
		return
	}

	result := s.portal.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case result.Success:
		c.JSON(http.StatusOK, result)
	case errors.Is(result.Err, sei.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, result)
	default:
		s.tel.ReportWarning(report_api_login, result.Err)
		c.JSON(http.StatusBadGateway, result)
	}
}

func (s server) respond(c *gin.Context, body any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, body)
		return
	}
	status := http.StatusBadGateway
	if errors.Is(err, sei.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
	} else {
		s.tel.ReportWarning(report_api_page, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Package web serves the browser-facing JSON API: login, directory listing
// and zip downloads.
package web

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ftpbrowser/browse"
	"ftpbrowser/config"
	"ftpbrowser/transfer"
)

// SessionCookie names the cookie carrying the credential store id
const SessionCookie = "ftp_session"

// Browser is what the handlers need from the transfer layer
type Browser interface {
	ListDirectory(creds config.Credentials, path string) (*browse.Result, error)
	DownloadArchive(creds config.Credentials, dir string, names []string) (*transfer.Archive, error)
}

// Server holds the handler dependencies
type Server struct {
	browser  Browser
	store    *CredentialStore
	defaults config.Credentials
	cfg      *config.Config
	log      *zap.Logger
}

// NewServer creates the web server
func NewServer(cfg *config.Config, browser Browser, defaults config.Credentials, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		browser:  browser,
		store:    NewCredentialStore(cfg.SessionTTL),
		defaults: defaults,
		cfg:      cfg,
		log:      log,
	}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), requestMetrics())

	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.New(s.corsConfig()))
	}

	api := r.Group("/api")
	{
		api.GET("/defaults", s.getDefaults)
		api.POST("/login", s.login)
		api.POST("/logout", s.logout)
	}

	protected := api.Group("")
	protected.Use(s.requireSession())
	{
		protected.GET("/files", s.listFiles)
		protected.POST("/download", s.download)
	}

	return r
}

// corsConfig allows the configured origins to call the API with the session
// cookie. A single "*" allows any origin. Without origins the middleware is
// not installed and browsers keep the API same-origin.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*" {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
	}
	return cfg
}

package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ftpbrowser/config"
	"ftpbrowser/listing"
	"ftpbrowser/session"
	"ftpbrowser/transfer"
)

type loginRequest struct {
	Host     string `json:"host" form:"host"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type downloadRequest struct {
	Files []string `json:"files" form:"files"`
	Path  string   `json:"path" form:"path"`
}

type entryResponse struct {
	Name        string       `json:"name"`
	Kind        listing.Kind `json:"kind"`
	IsDir       bool         `json:"is_dir"`
	Size        *uint64      `json:"size,omitempty"`
	SizeDisplay string       `json:"size_display,omitempty"`
	Modified    *time.Time   `json:"modified,omitempty"`
}

func (s *Server) getDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"host":     s.defaults.Host,
		"username": s.defaults.Username,
	})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Host == "" {
		req.Host = s.defaults.Host
	}
	if req.Username == "" {
		req.Username = s.defaults.Username
	}

	creds := config.Credentials{Host: req.Host, Username: req.Username, Password: req.Password}
	id := s.store.Put(creds)
	s.log.Info("login stored", zap.Object("ftp", creds))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(s.cfg.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "host": creds.Host, "username": creds.Username})
}

func (s *Server) logout(c *gin.Context) {
	if id, err := c.Cookie(SessionCookie); err == nil {
		s.store.Delete(id)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) listFiles(c *gin.Context) {
	creds := c.MustGet(credentialsKey).(config.Credentials)

	res, err := s.browser.ListDirectory(creds, c.Query("path"))
	if err != nil {
		s.fail(c, err)
		return
	}

	entries := make([]entryResponse, 0, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, entryResponse{
			Name:        e.Name,
			Kind:        e.Kind,
			IsDir:       e.IsDir,
			Size:        e.Size,
			SizeDisplay: e.SizeDisplay(),
			Modified:    e.ModTime,
		})
	}
	c.JSON(http.StatusOK, gin.H{"path": res.Path, "entries": entries})
}

func (s *Server) download(c *gin.Context) {
	creds := c.MustGet(credentialsKey).(config.Credentials)

	var req downloadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	s.log.Info("download requested", zap.Int("files", len(req.Files)), zap.String("path", req.Path))

	arc, err := s.browser.DownloadArchive(creds, req.Path, req.Files)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", arc.Name))
	c.Data(http.StatusOK, arc.ContentType, arc.Data)
}

// fail maps an error from the transfer layer to a response
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		s.log.Warn("request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, transfer.ErrValidation) {
		return http.StatusBadRequest
	}
	switch session.KindOf(err) {
	case session.KindPermission:
		return http.StatusForbidden
	case session.KindConnection, session.KindTransfer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

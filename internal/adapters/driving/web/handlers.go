package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

const sessionKey = "session"

// requireSession aborts with 401 unless the request carries a live
// session cookie.
func (s *Server) requireSession(c *gin.Context) {
	sid, err := c.Cookie(sessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	sess, ok := s.sessions.Get(sid)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) Session {
	return c.MustGet(sessionKey).(Session)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type loginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token is required"})
		return
	}

	identity, err := s.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		logger.Warn("Login failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid sign-in token"})
		return
	}

	sid := s.sessions.Create(identity.Email, identity.Name)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sid, int(SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"email": identity.Email, "name": identity.Name})
}

func (s *Server) handleLogout(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(sid)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMe(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"email": sess.Email, "name": sess.Name})
}

type fileJSON struct {
	ID             string `json:"id"`
	RiskScore      int    `json:"risk_score"`
	RiskLevel      string `json:"risk_level"`
	Source         string `json:"source"`
	ItemType       string `json:"item_type"`
	ItemPath       string `json:"item_path"`
	ItemWebURL     string `json:"item_web_url"`
	SharingType    string `json:"sharing_type"`
	SharedWith     string `json:"shared_with"`
	SharedWithType string `json:"shared_with_type"`
	Role           string `json:"role"`
}

func (s *Server) handleFiles(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()

	stats, err := s.dashboard.OwnerStats(ctx, sess.Email)
	if errors.Is(err, domain.ErrNoCompletedRun) {
		c.JSON(http.StatusOK, gin.H{"files": []fileJSON{}, "last_scan": nil})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load files"})
		return
	}

	exposures, err := s.dashboard.OwnerExposures(ctx, sess.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load files"})
		return
	}

	levels := csvSet(c.Query("risk_level"), strings.ToUpper)
	sources := csvSet(c.Query("source"), nil)
	search := strings.ToLower(c.Query("search"))

	files := make([]fileJSON, 0, len(exposures))
	for _, e := range exposures {
		if levels != nil && !levels[string(e.RiskLevel)] {
			continue
		}
		if sources != nil && !sources[e.Source] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.ItemPath), search) {
			continue
		}
		files = append(files, fileJSON{
			ID:             e.ID,
			RiskScore:      e.RiskScore,
			RiskLevel:      string(e.RiskLevel),
			Source:         e.Source,
			ItemType:       string(e.ItemType),
			ItemPath:       e.ItemPath,
			ItemWebURL:     e.ItemWebURL,
			SharingType:    e.SharingTypes,
			SharedWith:     e.SharedWith,
			SharedWithType: e.AudienceTypes,
			Role:           e.Roles,
		})
	}

	c.JSON(http.StatusOK, gin.H{"files": files, "last_scan": stats.ScanTime})
}

func (s *Server) handleStats(c *gin.Context) {
	sess := currentSession(c)

	stats, err := s.dashboard.OwnerStats(c.Request.Context(), sess.Email)
	if errors.Is(err, domain.ErrNoCompletedRun) {
		c.JSON(http.StatusOK, gin.H{"total": 0, "high": 0, "medium": 0, "low": 0, "last_scan": nil})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     stats.Total,
		"high":      stats.High,
		"medium":    stats.Medium,
		"low":       stats.Low,
		"run_id":    stats.RunID,
		"last_scan": stats.ScanTime,
	})
}

type unshareRequest struct {
	FileIDs    []string `json:"file_ids"`
	GraphToken string   `json:"graph_token"`
}

func (s *Server) handleUnshare(c *gin.Context) {
	sess := currentSession(c)

	var req unshareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files specified"})
		return
	}

	logger.Info("Unshare request from %s: %d files", sess.Email, len(req.FileIDs))
	outcome, err := s.remediation.Unshare(c.Request.Context(), req.GraphToken, req.FileIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unshare failed"})
		return
	}
	logger.Info("Unshare result: %d succeeded, %d failed", len(outcome.Succeeded), len(outcome.Failed))

	succeeded := outcome.Succeeded
	if succeeded == nil {
		succeeded = []string{}
	}
	failed := outcome.Failed
	if failed == nil {
		failed = []driving.UnshareFailure{}
	}
	c.JSON(http.StatusOK, gin.H{"succeeded": succeeded, "failed": failedJSON(failed)})
}

type failureJSON struct {
	ID      string `json:"id"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

func failedJSON(failures []driving.UnshareFailure) []failureJSON {
	out := make([]failureJSON, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureJSON{ID: f.ID, Reason: f.Reason, Message: f.Message, Action: f.Action})
	}
	return out
}

// csvSet parses a comma-separated query value into a membership set.
// Nil means the filter is absent.
func csvSet(raw string, normalize func(string) string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if normalize != nil {
			part = normalize(part)
		}
		set[part] = true
	}
	return set
}

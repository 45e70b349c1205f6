package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dialstack/callcore/internal/negotiate"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/relay"
)

type optionStatus struct {
	Option  string `json:"option"`
	Enabled bool   `json:"enabled"`
}

type optionRequest struct {
	Option  string `json:"option"`
	Enabled bool   `json:"enabled"`
}

type forceDisableRequest struct {
	Version  string `json:"version"`
	Disabled bool   `json:"disabled"`
}

type previewRequest struct {
	LibraryVersions []string `json:"library_versions"`
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": "callcore-admin",
			"version":   "0.0.1",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":     true,
			"uptime":    time.Since(s.started).String(),
			"component": "callcore-admin",
			"version":   "0.0.1",
		})
	})

	r.GET("/debug/options", func(c *gin.Context) {
		flags := s.setup.Flags()
		statuses := make([]optionStatus, 0, len(policy.AllDebugOptions()))
		for _, opt := range policy.AllDebugOptions() {
			statuses = append(statuses, optionStatus{
				Option:  policy.OptionName(opt),
				Enabled: flags.OptionEnabled(opt),
			})
		}
		c.JSON(http.StatusOK, gin.H{"options": statuses})
	})

	r.POST("/debug/options", s.requireToken(), func(c *gin.Context) {
		var req optionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		opt, ok := optionByName(req.Option)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown debug option"})
			return
		}
		s.setup.Flags().SetOption(opt, req.Enabled)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "option": req.Option, "enabled": req.Enabled})
	})

	r.GET("/debug/force-disable", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"versions": s.setup.Flags().ForceDisabledVersions(),
		})
	})

	r.POST("/debug/force-disable", s.requireToken(), func(c *gin.Context) {
		var req forceDisableRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Version == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		s.setup.Flags().SetForceDisabled(req.Version, req.Disabled)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": req.Version, "disabled": req.Disabled})
	})

	r.GET("/protocol", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"protocol": s.setup.Protocol()})
	})

	r.POST("/negotiate/preview", func(c *gin.Context) {
		var req previewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		sel, err := s.setup.Negotiator().Preview(req.LibraryVersions)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, negotiate.ErrNoCompatibleEngine) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"selection": sel})
	})

	r.GET("/servers", func(c *gin.Context) {
		usable, err := relay.Filter(s.setup.Flags(), s.servers)
		resp := gin.H{"configured": s.servers}
		if err != nil {
			resp["error"] = err.Error()
			resp["usable"] = []relay.Server{}
		} else {
			resp["usable"] = usable
		}
		c.JSON(http.StatusOK, resp)
	})
}

func optionByName(name string) (policy.DebugOption, bool) {
	for _, opt := range policy.AllDebugOptions() {
		if policy.OptionName(opt) == name {
			return opt, true
		}
	}
	return 0, false
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshoyemi/aib-dashboard/internal/engine"
	"github.com/oshoyemi/aib-dashboard/internal/export"
	"github.com/oshoyemi/aib-dashboard/internal/metrics"
	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/refresh"
	"github.com/oshoyemi/aib-dashboard/internal/repository"
	"github.com/oshoyemi/aib-dashboard/internal/warehouse"
)

const defaultListLimit = 1000

// Handler serves the rendered dashboard, the incident archive and the
// server-side view computation.
type Handler struct {
	repo          repository.IncidentRepository
	runner        *refresh.Runner
	dashboardPath string

	refreshing atomic.Bool
}

func NewHandler(repo repository.IncidentRepository, runner *refresh.Runner, dashboardPath string) *Handler {
	return &Handler{
		repo:          repo,
		runner:        runner,
		dashboardPath: dashboardPath,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.getDashboard)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/api/incidents", h.getIncidents)
	r.GET("/api/incidents.xlsx", h.getIncidentsXLSX)
	r.GET("/api/view", h.getView)
	r.POST("/api/refresh", h.postRefresh)
}

// getDashboard serves the last rendered dashboard document.
func (h *Handler) getDashboard(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.File(h.dashboardPath)
}

func (h *Handler) health(c *gin.Context) {
	count, err := h.repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "archive unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "incidents": count})
}

func (h *Handler) getIncidents(c *gin.Context) {
	filter := listFilter(c)
	incidents, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(incidents),
		"incidents": models.Records(incidents),
	})
}

func (h *Handler) getIncidentsXLSX(c *gin.Context) {
	filter := listFilter(c)
	filter.Limit = 0 // exports are not paginated
	incidents, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="aib_incidents.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteIncidentsXLSX(c.Writer, incidents); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// getView recomputes a full dashboard state server-side: same semantics as
// the script embedded in the rendered page.
func (h *Handler) getView(c *gin.Context) {
	// The engine applies the filter and drill predicates itself, so the
	// archive is listed unfiltered.
	incidents, err := h.repo.List(c.Request.Context(), repository.Filter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}

	f := engine.DefaultFilters()
	if w := c.Query("week"); w != "" {
		f.Week = w
	}
	if s := c.Query("sites"); s != "" {
		f.Sites = splitCSV(s)
	}
	if s := c.Query("cells"); s != "" {
		f.Cells = splitCSV(s)
	}
	if cl := c.Query("class"); cl != "" {
		f.Class = strings.ToUpper(cl)
	}
	if d := c.Query("start_date"); d != "" {
		f.StartDate = d
	}
	if d := c.Query("end_date"); d != "" {
		f.EndDate = d
	}

	var sel engine.Selection
	sel.Cell = c.Query("cell")
	sel.Component = c.Query("component")

	c.JSON(http.StatusOK, engine.Apply(incidents, f, sel))
}

// postRefresh triggers an out-of-schedule run. The pull can take minutes,
// so the run happens in the background and overlapping requests are
// rejected.
func (h *Handler) postRefresh(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh not configured"})
		return
	}
	if !h.refreshing.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already running"})
		return
	}

	kind := warehouse.RefreshPull
	if c.Query("kind") == string(warehouse.FullPull) {
		kind = warehouse.FullPull
	}

	// Detached from the request context: the run must outlive the response.
	go func() {
		defer h.refreshing.Store(false)
		if err := h.runner.Run(context.Background(), kind); err != nil {
			slog.Error("manual refresh failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "refresh started", "kind": string(kind)})
}

func listFilter(c *gin.Context) repository.Filter {
	filter := repository.Filter{
		Limit: defaultListLimit,
		Class: repository.ClassAll,
	}
	if w := c.Query("week"); w != "" {
		filter.Week = w
	}
	if s := c.Query("sites"); s != "" {
		filter.Sites = splitCSV(s)
	}
	if s := c.Query("cells"); s != "" {
		filter.Cells = splitCSV(s)
	}
	switch strings.ToUpper(c.Query("class")) {
	case string(repository.ClassBlocking):
		filter.Class = repository.ClassBlocking
	case string(repository.ClassStarving):
		filter.Class = repository.ClassStarving
	}
	if d := c.Query("start_date"); d != "" {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			filter.StartDate = d
		}
	}
	if d := c.Query("end_date"); d != "" {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			filter.EndDate = d
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 100000 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}
	return filter
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

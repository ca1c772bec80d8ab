package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"priceharvester/internal/database"
	"priceharvester/internal/ingest"
	"priceharvester/internal/models"
	"priceharvester/internal/report"
	"priceharvester/internal/util"
	"priceharvester/internal/validation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// HarvestService runs or returns a cached harvest
type HarvestService interface {
	Harvest(ctx context.Context, force bool) models.HarvestRun
}

// HarvestHandler serves the upload and harvest API
type HarvestHandler struct {
	db             *database.Database
	service        HarvestService
	uploadDir      string
	maxUploadBytes int64
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(db *database.Database, service HarvestService, uploadDir string, maxUploadBytes int64) *HarvestHandler {
	return &HarvestHandler{
		db:             db,
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse is returned by Upload
type UploadResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Rows     int              `json:"rows"`
	Skipped  int              `json:"skipped"`
	Inserted int64            `json:"inserted"`
	Text     string           `json:"text"`
	Harvest  *report.Response `json:"harvest,omitempty"`
}

// Upload handles a spreadsheet upload
// @Summary Upload a listings spreadsheet
// @Description Accepts an .xlsx workbook with title, url and xpath columns, stores its rows and returns them as text. Unless harvest=false, the price harvest report is attached.
// @Tags listings
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Param harvest query bool false "Run the harvest after ingesting" default(true)
// @Success 200 {object} UploadResponse
// @Failure 400 {object} map[string]interface{} "Invalid or incomplete workbook"
// @Failure 413 {object} map[string]interface{} "Upload too large"
// @Router /api/upload [post]
func (h *HarvestHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": fmt.Sprintf("Upload exceeds %d bytes", h.maxUploadBytes),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "A spreadsheet must be sent in the 'file' field",
		})
		return
	}

	if err := validation.ValidateUploadName(file.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to store upload", err)
		return
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), validation.SanitizeFileName(file.Filename))
	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to store upload", err)
		return
	}

	listings, rep, err := ingest.ReadFile(path)
	if err != nil {
		var missing *ingest.MissingColumnsError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": err.Error(),
				"missing": missing.Missing,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "File could not be read as a spreadsheet",
		})
		return
	}

	inserted, err := h.db.InsertListings(listings)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to save listings", err)
		return
	}

	text, skipped := ingest.FormatListings(listings)
	resp := UploadResponse{
		Success:  true,
		Message:  "Spreadsheet processed",
		Rows:     rep.Rows,
		Skipped:  rep.Skipped + skipped,
		Inserted: inserted,
		Text:     text,
	}

	if c.DefaultQuery("harvest", "true") != "false" {
		harvest := report.NewResponse(h.service.Harvest(detached(c), false))
		resp.Harvest = &harvest
	}

	c.JSON(http.StatusOK, resp)
}

// GetHarvest returns the cached harvest or runs one
// @Summary Get the price harvest report
// @Description Returns the most recent cached harvest, running a fresh one when the cache is empty or expired
// @Tags harvest
// @Produce json
// @Success 200 {object} report.Response
// @Failure 429 {object} map[string]string "error: Too Many Requests - Rate limited"
// @Router /api/harvest [get]
func (h *HarvestHandler) GetHarvest(c *gin.Context) {
	run := h.service.Harvest(detached(c), false)
	c.JSON(http.StatusOK, report.NewResponse(run))
}

// ForceHarvest runs a fresh harvest
// @Summary Force a fresh price harvest
// @Description Ignores the cache and harvests every listing page. Requires the admin key and is limited by a cooldown.
// @Tags harvest
// @Produce json
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} report.Response
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 429 {object} map[string]string "error: Harvest too frequent"
// @Router /api/harvest [post]
func (h *HarvestHandler) ForceHarvest(c *gin.Context) {
	run := h.service.Harvest(detached(c), true)
	c.JSON(http.StatusOK, report.NewResponse(run))
}

// ListRuns returns persisted harvest runs
// @Summary List recent harvest runs
// @Tags harvest
// @Produce json
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} models.HarvestRun
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Router /api/harvest/runs [get]
func (h *HarvestHandler) ListRuns(c *gin.Context) {
	limit, err := validation.ValidateLimit(c.Query("limit"), defaultListLimit, maxListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	runs, err := h.db.RecentHarvestRuns(limit)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load harvest runs", err)
		return
	}
	if runs == nil {
		runs = []models.HarvestRun{}
	}
	c.JSON(http.StatusOK, runs)
}

// ListListings returns ingested spreadsheet rows
// @Summary List ingested listings
// @Tags listings
// @Produce json
// @Param limit query int false "Maximum number of rows" default(50)
// @Success 200 {array} models.Listing
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Router /api/listings [get]
func (h *HarvestHandler) ListListings(c *gin.Context) {
	limit, err := validation.ValidateLimit(c.Query("limit"), defaultListLimit, maxListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	listings, err := h.db.ListListings(limit)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load listings", err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	c.JSON(http.StatusOK, listings)
}

// Health reports database reachability
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health [get]
func (h *HarvestHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}

	count, err := h.db.CountListings()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "listings": count})
}

// detached keeps a harvest running when the client goes away, so the pages
// already in flight are not all reported as canceled. The harvester bounds
// the run with its own timeout.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"facetrack/internal/admin"
	"facetrack/internal/attendance"
	"facetrack/internal/auth"
	"facetrack/internal/detection"
	"facetrack/internal/identity"
	"facetrack/internal/importer"
)

// Handler owns the HTTP surface. All decision logic lives in the injected
// services; handlers only translate between HTTP and the pipeline.
type Handler struct {
	identities  *identity.Repository
	attendance  *attendance.Repository
	stats       *attendance.Stats
	detections  *detection.Repository
	service     *attendance.Service
	importer    *importer.Importer
	admins      *admin.Repository
	jwtIssuer   string
	jwtKey      string
	accessTTL   time.Duration
	healthCheck func(c *gin.Context) (dbOK, redisOK bool)
}

// New wires the handler.
func New(identities *identity.Repository, att *attendance.Repository, stats *attendance.Stats,
	detections *detection.Repository, service *attendance.Service, imp *importer.Importer,
	admins *admin.Repository, jwtIssuer, jwtKey string, accessTTL time.Duration,
	healthCheck func(c *gin.Context) (bool, bool)) *Handler {
	return &Handler{
		identities:  identities,
		attendance:  att,
		stats:       stats,
		detections:  detections,
		service:     service,
		importer:    imp,
		admins:      admins,
		jwtIssuer:   jwtIssuer,
		jwtKey:      jwtKey,
		accessTTL:   accessTTL,
		healthCheck: healthCheck,
	}
}

// Register mounts every route. Import and delete are admin-guarded.
func (h *Handler) Register(r *gin.Engine) {
	adminOnly := auth.AdminAuth(h.jwtKey, h.jwtIssuer)

	api := r.Group("/api")
	api.POST("/admin/login", h.AdminLogin)

	api.GET("/students", h.listIdentities(identity.RoleStudent))
	api.GET("/students/:id", h.getIdentity(identity.RoleStudent))
	api.POST("/students", h.createIdentity(identity.RoleStudent))
	api.PUT("/students/:id", h.updateIdentity(identity.RoleStudent))
	api.DELETE("/students/:id", adminOnly, h.deleteIdentity(identity.RoleStudent))

	api.GET("/faculty", h.listIdentities(identity.RoleFaculty))
	api.GET("/faculty/:id", h.getIdentity(identity.RoleFaculty))
	api.POST("/faculty", h.createIdentity(identity.RoleFaculty))
	api.PUT("/faculty/:id", h.updateIdentity(identity.RoleFaculty))
	api.DELETE("/faculty/:id", adminOnly, h.deleteIdentity(identity.RoleFaculty))

	api.GET("/attendance/students", h.listAttendance(identity.RoleStudent))
	api.POST("/attendance/students", h.createAttendance(identity.RoleStudent))
	api.GET("/attendance/faculty", h.listAttendance(identity.RoleFaculty))
	api.POST("/attendance/faculty", h.createAttendance(identity.RoleFaculty))

	api.GET("/absent/students", h.listAbsent(identity.RoleStudent))
	api.GET("/absent/faculty", h.listAbsent(identity.RoleFaculty))
	api.GET("/delay/students", h.listDelay(identity.RoleStudent))
	api.GET("/delay/faculty", h.listDelay(identity.RoleFaculty))

	api.POST("/face/recognize", h.Recognize)
	api.GET("/face/detections", h.Detections)
	api.POST("/face/train", h.Train)

	api.POST("/import/students", adminOnly, h.importIdentities(identity.RoleStudent))
	api.POST("/import/faculty", adminOnly, h.importIdentities(identity.RoleFaculty))

	api.GET("/stats/overview", h.StatsOverview)

	r.GET("/healthz", h.Healthz)
}

// ---------- Admin ----------

// AdminLogin checks the credential and issues a session token.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cred, err := h.admins.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		log.Printf("admin lookup failed for %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}
	if cred == nil || cred.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, expiresAt, err := auth.Issue(cred.Username, "admin", h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"admin":      gin.H{"id": cred.ID, "username": cred.Username},
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}

// ---------- Identities ----------

type identityRequest struct {
	Name    string `json:"name" binding:"required"`
	RollNo  string `json:"rollNo"`
	StaffID string `json:"staffId"`
	Dept    string `json:"dept" binding:"required"`
	DOB     string `json:"dob" binding:"required"`
	Gender  string `json:"gender" binding:"required"`
	Phone   string `json:"phone" binding:"required,max=15"`
	Email   string `json:"email" binding:"required,email"`
}

func (req identityRequest) externalID(role identity.Role) string {
	if role == identity.RoleFaculty {
		return req.StaffID
	}
	return req.RollNo
}

func roleNoun(role identity.Role) string {
	if role == identity.RoleFaculty {
		return "Faculty"
	}
	return "Student"
}

func (h *Handler) listIdentities(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.identities.List(c.Request.Context(), role)
		if err != nil {
			log.Printf("list %s failed: %v", role, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch " + string(role)})
			return
		}
		if list == nil {
			list = []identity.Identity{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func (h *Handler) getIdentity(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := h.identities.GetByExternalID(c.Request.Context(), role, c.Param("id"))
		if err != nil {
			log.Printf("get %s %s failed: %v", role, c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch " + string(role)})
			return
		}
		if ident == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": roleNoun(role) + " not found"})
			return
		}
		c.JSON(http.StatusOK, ident)
	}
}

func (h *Handler) createIdentity(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req identityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + string(role) + " data", "errors": err.Error()})
			return
		}
		externalID := req.externalID(role)
		if externalID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + string(role) + " data", "errors": "missing id"})
			return
		}

		ident, err := h.identities.Create(c.Request.Context(), role, identity.Insert{
			ExternalID: externalID,
			Name:       req.Name,
			Dept:       req.Dept,
			DOB:        req.DOB,
			Gender:     req.Gender,
			Phone:      req.Phone,
			Email:      req.Email,
		})
		if err != nil {
			if errors.Is(err, identity.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"message": roleNoun(role) + " already exists"})
				return
			}
			log.Printf("create %s %s failed: %v", role, externalID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create " + string(role)})
			return
		}
		c.JSON(http.StatusCreated, ident)
	}
}

func (h *Handler) updateIdentity(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd identity.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + string(role) + " data"})
			return
		}
		ident, err := h.identities.Update(c.Request.Context(), role, c.Param("id"), upd)
		if err != nil {
			log.Printf("update %s %s failed: %v", role, c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update " + string(role)})
			return
		}
		if ident == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": roleNoun(role) + " not found"})
			return
		}
		c.JSON(http.StatusOK, ident)
	}
}

func (h *Handler) deleteIdentity(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := h.identities.Delete(c.Request.Context(), role, c.Param("id"))
		if err != nil {
			log.Printf("delete %s %s failed: %v", role, c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete " + string(role)})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"message": roleNoun(role) + " not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": roleNoun(role) + " deleted successfully"})
	}
}

// ---------- Attendance ----------

func (h *Handler) listAttendance(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := h.attendance.ListByDate(c.Request.Context(), role, c.Query("date"))
		if err != nil {
			log.Printf("list %s attendance failed: %v", role, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch " + string(role) + " attendance"})
			return
		}
		if logs == nil {
			logs = []attendance.Record{}
		}
		c.JSON(http.StatusOK, logs)
	}
}

// createAttendance is the manual entry path; the recognition pipeline does
// not use it.
func (h *Handler) createAttendance(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RollNo    string `json:"rollNo"`
			StaffID   string `json:"staffId"`
			Date      string `json:"date" binding:"required"`
			LoginTime string `json:"loginTime" binding:"required"`
			Status    string `json:"status" binding:"required,oneof=on-time delay"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid attendance data", "errors": err.Error()})
			return
		}
		externalID := req.RollNo
		if role == identity.RoleFaculty {
			externalID = req.StaffID
		}
		if externalID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid attendance data", "errors": "missing id"})
			return
		}

		rec, err := h.attendance.Insert(c.Request.Context(), role, attendance.Record{
			ExternalID: externalID,
			Date:       req.Date,
			LoginTime:  req.LoginTime,
			Status:     req.Status,
		})
		if err != nil {
			log.Printf("record %s attendance for %s failed: %v", role, externalID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record " + string(role) + " attendance"})
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func (h *Handler) listAbsent(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := h.attendance.AbsentByDate(c.Request.Context(), role, c.Query("date"))
		if err != nil {
			log.Printf("list %s absent failed: %v", role, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch absent logs"})
			return
		}
		if logs == nil {
			logs = []attendance.AbsentEntry{}
		}
		c.JSON(http.StatusOK, logs)
	}
}

func (h *Handler) listDelay(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := h.attendance.DelayByDate(c.Request.Context(), role, c.Query("date"))
		if err != nil {
			log.Printf("list %s delay failed: %v", role, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch delay logs"})
			return
		}
		if logs == nil {
			logs = []attendance.DelayEntry{}
		}
		c.JSON(http.StatusOK, logs)
	}
}

// ---------- Face recognition ----------

// Recognize drives the capture pipeline for one frame.
func (h *Handler) Recognize(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No image data provided"})
		return
	}

	resp, err := h.service.Recognize(c.Request.Context(), req.Image, time.Now())
	if err != nil {
		log.Printf("recognize pipeline failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Face recognition failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Detections returns the newest detection events for the live feed.
func (h *Handler) Detections(c *gin.Context) {
	events, err := h.detections.Recent(c.Request.Context())
	if err != nil {
		log.Printf("list detections failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch detections"})
		return
	}
	if events == nil {
		events = []detection.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// Train submits enrollment images and flips the face-trained flag.
func (h *Handler) Train(c *gin.Context) {
	var req struct {
		UserID   string         `json:"userId"`
		UserType string         `json:"userType"`
		Images   []string       `json:"images"`
		UserInfo map[string]any `json:"userInfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || len(req.Images) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid training data"})
		return
	}
	role := identity.Role(req.UserType)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid training data"})
		return
	}

	simulated, err := h.service.Train(c.Request.Context(), role, req.UserID, req.Images, req.UserInfo)
	if err != nil {
		log.Printf("train %s %s failed: %v", role, req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Face training failed"})
		return
	}
	message := "Face training completed successfully"
	if simulated {
		message = "Face training completed (simulation mode)"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// ---------- Import ----------

func (h *Handler) importIdentities(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
			return
		}
		defer file.Close()

		result, err := h.importer.Import(c.Request.Context(), role, file)
		if err != nil {
			if errors.Is(err, importer.ErrNoValidRows) {
				c.JSON(http.StatusBadRequest, gin.H{
					"message": "No valid " + string(role) + " found in file",
					"errors":  result.ErrorDetails,
				})
				return
			}
			log.Printf("import %s failed: %v", role, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Import failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      result.Success,
			"duplicates":   result.Duplicates,
			"errors":       result.Errors,
			"errorDetails": result.ErrorDetails,
			"message":      roleNoun(role) + " imported successfully",
		})
	}
}

// ---------- Stats ----------

// StatsOverview reports the day's presence counts; date defaults to today.
func (h *Handler) StatsOverview(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(attendance.DateFormat)
	}
	overview, err := h.stats.OverviewFor(c.Request.Context(), date)
	if err != nil {
		log.Printf("stats overview failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch statistics"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ---------- Health ----------

// Healthz reports database and redis connectivity.
func (h *Handler) Healthz(c *gin.Context) {
	dbOK, redisOK := h.healthCheck(c)
	status := http.StatusOK
	if !dbOK || !redisOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbOK, "redis": redisOK})
}

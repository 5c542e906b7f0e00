package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mboajobs/internal/database"
	"mboajobs/internal/metrics"
	"mboajobs/internal/resume"
)

// ApplicationHandler 负责投递的创建与状态流转。
type ApplicationHandler struct {
	db      *gorm.DB
	service *resume.Service
}

// NewApplicationHandler 构造 ApplicationHandler。
func NewApplicationHandler(db *gorm.DB, service *resume.Service) *ApplicationHandler {
	return &ApplicationHandler{db: db, service: service}
}

type applyRequest struct {
	JobID       uint   `json:"job_id" binding:"required"`
	ResumeID    *uint  `json:"resume_id"`
	CoverLetter string `json:"cover_letter"`
}

type applicationResponse struct {
	ID          uint      `json:"id"`
	JobID       uint      `json:"job_id"`
	JobTitle    string    `json:"job_title,omitempty"`
	CandidateID uint      `json:"candidate_id"`
	ResumeID    *uint     `json:"resume_id,omitempty"`
	Status      string    `json:"status"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Apply 候选人投递一个职位。
// 同一候选人对同一职位只能投递一次，重复投递返回冲突；
// 附带的简历必须属于投递人本人。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, req.JobID).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}
	if job.Status != JobStatusOpen {
		Conflict(c, "job is closed")
		return
	}

	if req.ResumeID != nil {
		if _, err := h.service.Get(ctx, *req.ResumeID, candidate.ID); err != nil {
			if errors.Is(err, resume.ErrNotFound) {
				NotFound(c, "resume not found")
				return
			}
			Internal(c, "failed to query resume")
			return
		}
	}

	var existing database.Application
	err := h.db.WithContext(ctx).
		Where("job_id = ? AND candidate_id = ?", req.JobID, candidate.ID).
		First(&existing).Error
	if err == nil {
		Conflict(c, "already applied to this job")
		return
	}
	if !isRecordNotFound(err) {
		Internal(c, "failed to query application")
		return
	}

	application := database.Application{
		JobID:       req.JobID,
		CandidateID: candidate.ID,
		ResumeID:    req.ResumeID,
		Status:      database.ApplicationPending,
		CoverLetter: req.CoverLetter,
	}
	if err := h.db.WithContext(ctx).Create(&application).Error; err != nil {
		// 并发双投会撞唯一索引。
		if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			Conflict(c, "already applied to this job")
			return
		}
		Internal(c, "failed to create application")
		return
	}

	metrics.CountApplicationSubmitted(job.Type)
	c.JSON(http.StatusCreated, newApplicationResponse(application, job.Title))
}

// ListMyApplications 列出候选人自己的投递记录。
func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	var applications []database.Application
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Job").
		Where("candidate_id = ?", candidate.ID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	items := make([]applicationResponse, 0, len(applications))
	for _, app := range applications {
		items = append(items, newApplicationResponse(app, app.Job.Title))
	}

	c.JSON(http.StatusOK, items)
}

// ListJobApplications 列出某职位收到的投递，仅限发布公司的招聘方。
func (h *ApplicationHandler) ListJobApplications(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	jobID, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()
	recruiter, err := recruiterForUser(ctx, h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "recruiter profile not found")
			return
		}
		Internal(c, "failed to resolve recruiter")
		return
	}

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}
	if recruiter.CompanyID == nil || job.CompanyID != *recruiter.CompanyID {
		Forbidden(c, "access denied")
		return
	}

	var applications []database.Application
	if err := h.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	items := make([]applicationResponse, 0, len(applications))
	for _, app := range applications {
		items = append(items, newApplicationResponse(app, job.Title))
	}

	c.JSON(http.StatusOK, items)
}

type updateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING REVIEW ACCEPTED REJECTED"`
}

// UpdateStatus 招聘方流转投递状态。
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req updateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid application id")
		return
	}

	ctx := c.Request.Context()
	recruiter, err := recruiterForUser(ctx, h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "recruiter profile not found")
			return
		}
		Internal(c, "failed to resolve recruiter")
		return
	}

	var application database.Application
	if err := h.db.WithContext(ctx).Preload("Job").First(&application, id).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "application not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}
	if recruiter.CompanyID == nil || application.Job.CompanyID != *recruiter.CompanyID {
		Forbidden(c, "access denied")
		return
	}

	if err := h.db.WithContext(ctx).Model(&application).Update("status", req.Status).Error; err != nil {
		Internal(c, "failed to update application")
		return
	}

	application.Status = req.Status
	c.JSON(http.StatusOK, newApplicationResponse(application, application.Job.Title))
}

func (h *ApplicationHandler) currentCandidate(c *gin.Context) (*database.Candidate, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	candidate, err := candidateForUser(c.Request.Context(), h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "candidate profile not found")
			return nil, false
		}
		Internal(c, "failed to resolve candidate")
		return nil, false
	}
	return candidate, true
}

func newApplicationResponse(app database.Application, jobTitle string) applicationResponse {
	return applicationResponse{
		ID:          app.ID,
		JobID:       app.JobID,
		JobTitle:    jobTitle,
		CandidateID: app.CandidateID,
		ResumeID:    app.ResumeID,
		Status:      app.Status,
		CoverLetter: app.CoverLetter,
		CreatedAt:   app.CreatedAt,
	}
}

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mboajobs/internal/database"
)

// 职位状态常量。
const (
	JobStatusOpen   = database.JobStatusOpen
	JobStatusClosed = database.JobStatusClosed
)

// 职位合同类型的合法取值。
var validJobTypes = map[string]struct{}{
	"CDI":        {},
	"CDD":        {},
	"Stage":      {},
	"Freelance":  {},
	"Alternance": {},
}

// JobHandler 负责职位的发布与检索。
type JobHandler struct {
	db *gorm.DB
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{db: db}
}

type jobRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Region      string `json:"region" binding:"required,max=64"`
	Type        string `json:"type" binding:"required"`
	Salary      string `json:"salary" binding:"max=128"`
}

type jobResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Region      string    `json:"region"`
	Type        string    `json:"type"`
	Salary      string    `json:"salary,omitempty"`
	Status      string    `json:"status"`
	CompanyID   uint      `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateJob 发布一条职位，要求招聘方已绑定公司。
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if _, ok := validJobTypes[req.Type]; !ok {
		BadRequest(c, "type must be one of CDI, CDD, Stage, Freelance, Alternance")
		return
	}

	recruiter, ok := h.currentRecruiter(c)
	if !ok {
		return
	}
	if recruiter.CompanyID == nil {
		Conflict(c, "recruiter must create a company first")
		return
	}

	job := database.Job{
		Title:       req.Title,
		Description: req.Description,
		Region:      req.Region,
		Type:        req.Type,
		Salary:      req.Salary,
		Status:      JobStatusOpen,
		CompanyID:   *recruiter.CompanyID,
		RecruiterID: recruiter.ID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&job).Error; err != nil {
		Internal(c, "failed to create job")
		return
	}

	c.JSON(http.StatusCreated, newJobResponse(job, ""))
}

// ListJobs 公开检索职位，支持地区/类型过滤与关键字搜索。
func (h *JobHandler) ListJobs(c *gin.Context) {
	page, pageSize := parsePagination(c)

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.Job{}).Where("status = ?", JobStatusOpen)
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}
	if jobType := c.Query("type"); jobType != "" {
		query = query.Where("type = ?", jobType)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		Internal(c, "failed to count jobs")
		return
	}

	var jobs []database.Job
	if err := query.
		Preload("Company").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error; err != nil {
		Internal(c, "failed to list jobs")
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, newJobResponse(job, job.Company.Name))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListJobFacets 返回开放职位实际出现过的地区与合同类型，供搜索筛选用。
func (h *JobHandler) ListJobFacets(c *gin.Context) {
	ctx := c.Request.Context()

	regions := make([]string, 0)
	if err := h.db.WithContext(ctx).Model(&database.Job{}).
		Where("status = ? AND region <> ''", JobStatusOpen).
		Distinct().
		Order("region ASC").
		Pluck("region", &regions).Error; err != nil {
		Internal(c, "failed to list job facets")
		return
	}

	types := make([]string, 0)
	if err := h.db.WithContext(ctx).Model(&database.Job{}).
		Where("status = ? AND type <> ''", JobStatusOpen).
		Distinct().
		Order("type ASC").
		Pluck("type", &types).Error; err != nil {
		Internal(c, "failed to list job facets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"regions": regions,
		"types":   types,
	})
}

// GetJob 返回单条职位详情。
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return
	}

	var job database.Job
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Company").
		First(&job, id).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	c.JSON(http.StatusOK, newJobResponse(job, job.Company.Name))
}

// ListMyJobs 列出当前招聘方公司发布的职位（含已关闭的）。
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	recruiter, ok := h.currentRecruiter(c)
	if !ok {
		return
	}
	if recruiter.CompanyID == nil {
		c.JSON(http.StatusOK, []jobResponse{})
		return
	}

	var jobs []database.Job
	if err := h.db.WithContext(c.Request.Context()).
		Where("company_id = ?", *recruiter.CompanyID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		Internal(c, "failed to list jobs")
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, newJobResponse(job, ""))
	}

	c.JSON(http.StatusOK, items)
}

// UpdateJob 更新职位内容，仅限发布公司的招聘方。
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if _, ok := validJobTypes[req.Type]; !ok {
		BadRequest(c, "type must be one of CDI, CDD, Stage, Freelance, Alternance")
		return
	}

	job, ok := h.jobOwnedByRecruiter(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(job).Updates(map[string]any{
		"title":       req.Title,
		"description": req.Description,
		"region":      req.Region,
		"type":        req.Type,
		"salary":      req.Salary,
	}).Error; err != nil {
		Internal(c, "failed to update job")
		return
	}

	if err := h.db.WithContext(ctx).First(job, job.ID).Error; err != nil {
		Internal(c, "failed to reload job")
		return
	}

	c.JSON(http.StatusOK, newJobResponse(*job, ""))
}

// CloseJob 关闭职位，之后不再出现在公开列表，也不接受新投递。
func (h *JobHandler) CloseJob(c *gin.Context) {
	job, ok := h.jobOwnedByRecruiter(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(job).Update("status", JobStatusClosed).Error; err != nil {
		Internal(c, "failed to close job")
		return
	}

	job.Status = JobStatusClosed
	c.JSON(http.StatusOK, newJobResponse(*job, ""))
}

// DeleteJob 删除职位及其投递记录。
func (h *JobHandler) DeleteJob(c *gin.Context) {
	job, ok := h.jobOwnedByRecruiter(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.Job{}, job.ID).Error; err != nil {
		Internal(c, "failed to delete job")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *JobHandler) currentRecruiter(c *gin.Context) (*database.Recruiter, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	recruiter, err := recruiterForUser(c.Request.Context(), h.db, userID)
	if err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "recruiter profile not found")
			return nil, false
		}
		Internal(c, "failed to resolve recruiter")
		return nil, false
	}
	return recruiter, true
}

func (h *JobHandler) jobOwnedByRecruiter(c *gin.Context) (*database.Job, bool) {
	recruiter, ok := h.currentRecruiter(c)
	if !ok {
		return nil, false
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return nil, false
	}

	var job database.Job
	if err := h.db.WithContext(c.Request.Context()).First(&job, id).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "job not found")
			return nil, false
		}
		Internal(c, "failed to query job")
		return nil, false
	}

	if recruiter.CompanyID == nil || job.CompanyID != *recruiter.CompanyID {
		Forbidden(c, "access denied")
		return nil, false
	}
	return &job, true
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func newJobResponse(job database.Job, companyName string) jobResponse {
	return jobResponse{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		Region:      job.Region,
		Type:        job.Type,
		Salary:      job.Salary,
		Status:      job.Status,
		CompanyID:   job.CompanyID,
		CompanyName: companyName,
		CreatedAt:   job.CreatedAt,
	}
}

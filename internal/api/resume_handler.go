package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mboajobs/internal/api/middleware"
	"mboajobs/internal/database"
	"mboajobs/internal/resume"
	"mboajobs/internal/storage"
	"mboajobs/internal/tasks"
)

// ResumeHandler 负责处理与简历文档相关的 API 请求。
// 业务规则在 resume.Service 内，此处只做 HTTP 适配与归属解析。
type ResumeHandler struct {
	db          *gorm.DB
	service     *resume.Service
	asynqClient *asynq.Client
	storage     *storage.Client
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, service *resume.Service, asynqClient *asynq.Client, storageClient *storage.Client) *ResumeHandler {
	return &ResumeHandler{
		db:          db,
		service:     service,
		asynqClient: asynqClient,
		storage:     storageClient,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type createResumeRequest struct {
	Title   string        `json:"title" binding:"required,max=255"`
	Content resume.Data   `json:"content"`
	Layout  string        `json:"layout"`
	Style   *resume.Style `json:"style"`
}

type updateResumeRequest struct {
	Title    *string       `json:"title"`
	Content  *resume.Data  `json:"content"`
	Layout   *string       `json:"layout"`
	Style    *resume.Style `json:"style"`
	IsPublic *bool         `json:"is_public"`
}

type resumeListItem struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Layout          string    `json:"layout"`
	IsPrimary       bool      `json:"is_primary"`
	IsPublic        bool      `json:"is_public"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Layout          string         `json:"layout"`
	Content         datatypes.JSON `json:"content"`
	Style           datatypes.JSON `json:"style,omitempty"`
	IsPrimary       bool           `json:"is_primary"`
	IsPublic        bool           `json:"is_public"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CreateResume 为当前候选人保存一份新简历。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	row, err := h.service.Create(c.Request.Context(), candidate.ID, resume.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Layout:  req.Layout,
		Style:   req.Style,
	})
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(*row))
}

// ListResumes 列出当前候选人的全部简历，最近更新的在前。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	rows, err := h.service.ListByCandidate(c.Request.Context(), candidate.ID)
	if err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, resumeListItem{
			ID:              r.ID,
			Title:           r.Title,
			Layout:          r.Layout,
			IsPrimary:       r.IsPrimary,
			IsPublic:        r.IsPublic,
			PreviewImageURL: r.PreviewImageURL,
			CreatedAt:       r.CreatedAt,
			UpdatedAt:       r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定 ID 的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	row, err := h.service.Get(c.Request.Context(), id, candidate.ID)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// UpdateResume 局部更新简历，未提供的字段保持不变。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	row, err := h.service.Update(c.Request.Context(), id, candidate.ID, resume.UpdatePatch{
		Title:    req.Title,
		Content:  req.Content,
		Layout:   req.Layout,
		Style:    req.Style,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// DeleteResume 删除指定简历。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, candidate.ID); err != nil {
		respondResumeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetPrimary 将指定简历设为主简历，同一候选人先前的主简历被取消。
func (h *ResumeHandler) SetPrimary(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	row, err := h.service.SetPrimary(c.Request.Context(), id, candidate.ID)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// CreateFromProfile 用候选人档案预填一份新简历。
func (h *ResumeHandler) CreateFromProfile(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	row, err := h.service.CreateFromProfile(c.Request.Context(), candidate.ID)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(*row))
}

// ApplyTemplate 将模板的布局与样式快照到简历上。
func (h *ResumeHandler) ApplyTemplate(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}
	templateID, err := parseResumeID(c.Param("templateId"))
	if err != nil {
		BadRequest(c, "invalid template id")
		return
	}

	userID, _ := userIDFromContext(c)
	ctx := c.Request.Context()

	var tmpl database.ResumeTemplate
	if err := h.db.WithContext(ctx).
		Where("id = ? AND (is_public = ? OR user_id = ?)", templateID, true, userID).
		First(&tmpl).Error; err != nil {
		if isRecordNotFound(err) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to query template")
		return
	}

	row, err := h.service.ApplyTemplate(ctx, id, candidate.ID, &tmpl)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*row))
}

// DownloadResume 将 PDF 生成任务入队并立即返回 202。
func (h *ResumeHandler) DownloadResume(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	row, err := h.service.Get(c.Request.Context(), id, candidate.ID)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewPDFGenerateTask(row.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue pdf generation")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF generation request accepted",
		"task_id": info.ID,
	})
}

// GetDownloadLink 生成简历 PDF 的预签名下载链接。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	candidate, ok := h.currentCandidate(c)
	if !ok {
		return
	}

	id, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	row, err := h.service.Get(c.Request.Context(), id, candidate.ID)
	if err != nil {
		respondResumeError(c, err)
		return
	}

	if row.PdfUrl == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), row.PdfUrl, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *ResumeHandler) currentCandidate(c *gin.Context) (*database.Candidate, bool) {
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

// respondResumeError 把服务层错误映射到 HTTP 状态：
// 校验错误附带字段路径返回 400，归属不符与不存在一律 404。
func respondResumeError(c *gin.Context, err error) {
	var validationErr *resume.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, resume.ErrNotFound):
		NotFound(c, "resume not found")
	default:
		Internal(c, "internal error")
	}
}

func parseResumeID(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidResumeID
	}
	return uint(id), nil
}

func newResumeResponse(row database.Resume) resumeResponse {
	return resumeResponse{
		ID:              row.ID,
		Title:           row.Title,
		Layout:          row.Layout,
		Content:         row.Content,
		Style:           row.Style,
		IsPrimary:       row.IsPrimary,
		IsPublic:        row.IsPublic,
		PreviewImageURL: row.PreviewImageURL,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mboajobs/internal/database"
	"mboajobs/internal/errcode"
	"mboajobs/internal/metrics"
	"mboajobs/internal/pdf"
	"mboajobs/internal/storage"
	"mboajobs/internal/tasks"
)

// PDFTaskHandler 负责消费简历 PDF 生成任务。
type PDFTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewPDFTaskHandler 创建任务处理器。
func NewPDFTaskHandler(db *gorm.DB, storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger) *PDFTaskHandler {
	return &PDFTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler：渲染 HTML、导出 PDF、上传并回写 pdf_url。
func (h *PDFTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)

	var row database.Resume
	if err := h.db.WithContext(ctx).First(&row, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	var candidate database.Candidate
	if err := h.db.WithContext(ctx).Select("id", "user_id").First(&candidate, row.CandidateID).Error; err != nil {
		log.Error("query candidate failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(candidate.UserID)))

	// 只在最后一次重试失败时推送错误通知，中间失败静默交给 asynq 重试。
	failCode := errcode.SystemError
	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := PDFGenerationNotifyMessage{
			Status:        "error",
			ResumeID:      row.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     failCode,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		metrics.CountResumePDFGenerated("error")
		if err := h.publishNotify(ctx, candidate.UserID, notify); err != nil {
			log.Error("publish pdf error notification failed", slog.Any("error", err))
		}
	}()

	htmlContent, err := RenderResumeHTML(&row)
	if err != nil {
		failCode = errcode.RenderFailed
		log.Error("render resume html failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := pdf.ExportResumePDF(ctx, htmlContent)
	if err != nil {
		failCode = errcode.PDFExportFailed
		log.Error("generate pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("generated-resumes/%d/%s.pdf", row.CandidateID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		failCode = errcode.StorageFailed
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&row).Update("pdf_url", objectName).Error; err != nil {
		log.Error("update resume failed", slog.Any("error", err))
		return err
	}

	notify := PDFGenerationNotifyMessage{
		Status:        "completed",
		ResumeID:      row.ID,
		CorrelationID: payload.CorrelationID,
		PdfURL:        objectName,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, candidate.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	metrics.CountResumePDFGenerated("completed")
	log.Info("pdf generation task completed")
	return nil
}

func (h *PDFTaskHandler) publishNotify(ctx context.Context, userID uint, notify PDFGenerationNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.UserNotifyChannel(userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mboajobs/internal/database"
)

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

func roleFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get("userRole")
	if !exists {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

// candidateForUser 查询当前用户对应的候选人档案。
// 角色中间件已拦截非候选人，此处查不到即数据不一致，按 NotFound 处理。
func candidateForUser(ctx context.Context, db *gorm.DB, userID uint) (*database.Candidate, error) {
	var candidate database.Candidate
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&candidate).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

// recruiterForUser 查询当前用户对应的招聘方档案。
func recruiterForUser(ctx context.Context, db *gorm.DB, userID uint) (*database.Recruiter, error) {
	var recruiter database.Recruiter
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&recruiter).Error; err != nil {
		return nil, err
	}
	return &recruiter, nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

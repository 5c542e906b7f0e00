package resume

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError 表示文档内容不合法，Field 为出错字段的路径。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid resume content: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

const dateLayout = "2006-01-02"

// Validate 在服务边界校验简历文档。
// 规则：personal.fullName/title/email 必填；skills[].level 取值 1-5；
// 任一日期对两端都存在时 end 不得早于 start；
// certifications[].date 非空时必须可按 YYYY-MM-DD 解析。
func Validate(d *Data) error {
	if strings.TrimSpace(d.Personal.FullName) == "" {
		return invalid("personal.fullName", "is required")
	}
	if strings.TrimSpace(d.Personal.Title) == "" {
		return invalid("personal.title", "is required")
	}
	if strings.TrimSpace(d.Personal.Email) == "" {
		return invalid("personal.email", "is required")
	}

	for i, exp := range d.Experiences {
		if err := checkDateOrder(fmt.Sprintf("experiences[%d]", i), exp.StartDate, exp.EndDate); err != nil {
			return err
		}
	}
	for i, edu := range d.Education {
		if err := checkDateOrder(fmt.Sprintf("education[%d]", i), edu.StartDate, edu.EndDate); err != nil {
			return err
		}
	}
	for i, skill := range d.Skills {
		if skill.Level < 1 || skill.Level > 5 {
			return invalid(fmt.Sprintf("skills[%d].level", i), "must be between 1 and 5")
		}
	}
	for i, project := range d.Projects {
		if err := checkDateOrder(fmt.Sprintf("projects[%d]", i), project.StartDate, project.EndDate); err != nil {
			return err
		}
	}
	for i, cert := range d.Certifications {
		if strings.TrimSpace(cert.Date) == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, cert.Date); err != nil {
			return invalid(fmt.Sprintf("certifications[%d].date", i), "must be formatted as YYYY-MM-DD")
		}
	}

	return nil
}

// checkDateOrder 仅在两端都能按 YYYY-MM-DD 解析时比较先后，
// 空串表示“进行中”，不参与比较。
func checkDateOrder(prefix, start, end string) error {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return nil
	}
	startAt, err := time.Parse(dateLayout, start)
	if err != nil {
		return invalid(prefix+".startDate", "must be formatted as YYYY-MM-DD")
	}
	endAt, err := time.Parse(dateLayout, end)
	if err != nil {
		return invalid(prefix+".endDate", "must be formatted as YYYY-MM-DD")
	}
	if endAt.Before(startAt) {
		return invalid(prefix+".endDate", "must not be before startDate")
	}
	return nil
}

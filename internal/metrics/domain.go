package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标。
var (
	applicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mboajobs",
			Subsystem: "board",
			Name:      "applications_submitted_total",
			Help:      "提交的求职申请总数。",
		},
		[]string{"job_type"},
	)

	resumePDFGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mboajobs",
			Subsystem: "board",
			Name:      "resume_pdf_generated_total",
			Help:      "简历 PDF 生成结果总数。",
		},
		[]string{"status"},
	)
)

// CountApplicationSubmitted 记录一次成功提交的求职申请。
func CountApplicationSubmitted(jobType string) {
	applicationsSubmitted.WithLabelValues(jobType).Inc()
}

// CountResumePDFGenerated 记录一次 PDF 生成结果（completed / error）。
func CountResumePDFGenerated(status string) {
	resumePDFGenerated.WithLabelValues(status).Inc()
}

package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复类（资源缺失等，流程可继续）
// - 5xxx：系统错误（中断流程，通知前端失败）
const (
	OK              = 0
	ResumeMissing   = 4004
	RenderFailed    = 5001
	PDFExportFailed = 5002
	StorageFailed   = 5003
	SystemError     = 5000
)

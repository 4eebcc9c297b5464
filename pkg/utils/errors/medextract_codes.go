package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Document extraction service errors.
var (
	ErrNoFileProvided = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "No file provided", "未提供文件"))
	ErrUnsupportedFileType = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 2),
		http.StatusBadRequest, codes.InvalidArgument, "Only PDF, PNG, JPG, and JPEG files are supported", "不支持的文件类型"))
	ErrNoCallbackURL = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 3),
		http.StatusBadRequest, codes.InvalidArgument, "No callback URL provided and tenant has no default webhook URL", "未提供回调地址"))
	ErrMissingJobID = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 4),
		http.StatusBadRequest, codes.InvalidArgument, "Missing job_id parameter", "缺少 job_id 参数"))
	ErrMissingDocumentID = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 5),
		http.StatusBadRequest, codes.InvalidArgument, "No document ID provided", "未提供文档 ID"))
	ErrFileTooLarge = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 6),
		http.StatusRequestEntityTooLarge, codes.InvalidArgument, "File exceeds the maximum upload size", "文件超过大小限制"))
	ErrPDFSplit = Register(New(MakeCode(ServiceMedExtract, CategoryRequest, 7),
		http.StatusBadRequest, codes.InvalidArgument, "Failed to split PDF into pages", "PDF 拆分失败"))

	ErrMissingAPIKey = Register(New(MakeCode(ServiceMedExtract, CategoryAuth, 1),
		http.StatusUnauthorized, codes.Unauthenticated, "Missing API key", "缺少 API Key"))
	ErrInvalidAPIKey = Register(New(MakeCode(ServiceMedExtract, CategoryAuth, 2),
		http.StatusUnauthorized, codes.Unauthenticated, "Invalid API key", "API Key 无效"))

	ErrTenantInactive = Register(New(MakeCode(ServiceMedExtract, CategoryPermission, 1),
		http.StatusForbidden, codes.PermissionDenied, "Tenant account is inactive", "租户已停用"))

	ErrJobNotFound = Register(New(MakeCode(ServiceMedExtract, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound, "Job not found", "任务不存在"))
	ErrDocumentNotFound = Register(New(MakeCode(ServiceMedExtract, CategoryResource, 2),
		http.StatusNotFound, codes.NotFound, "Document not found", "文档不存在"))
	ErrTenantNotFound = Register(New(MakeCode(ServiceMedExtract, CategoryResource, 3),
		http.StatusNotFound, codes.NotFound, "Tenant not found", "租户不存在"))

	ErrQueueLimitReached = Register(New(MakeCode(ServiceMedExtract, CategoryRateLimit, 1),
		http.StatusTooManyRequests, codes.ResourceExhausted, "Queue limit reached", "队列已满"))

	ErrExtractionFailed = Register(New(MakeCode(ServiceMedExtract, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal, "Failed to process document", "文档处理失败"))
	ErrExportFailed = Register(New(MakeCode(ServiceMedExtract, CategoryInternal, 2),
		http.StatusInternalServerError, codes.Internal, "Failed to export document", "文档导出失败"))

	ErrQueueUnavailable = Register(New(MakeCode(ServiceMedExtract, CategoryNetwork, 1),
		http.StatusServiceUnavailable, codes.Unavailable, "Job queue is unavailable", "任务队列不可用"))

	ErrPipelineTimeout = Register(New(MakeCode(ServiceMedExtract, CategoryTimeout, 1),
		http.StatusGatewayTimeout, codes.DeadlineExceeded, "Document processing timed out", "文档处理超时"))
)

package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK is the zero-code success value.
var OK = &Errno{Code: 0, HTTP: http.StatusOK, GRPCCode: codes.OK, MessageEN: "success", MessageZH: "成功"}

// Common errors shared by every handler and store.
var (
	ErrBadRequest = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "Bad request", "请求错误"))
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数错误"))
	ErrUnauthorized = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1),
		http.StatusUnauthorized, codes.Unauthenticated, "Unauthorized", "未认证"))
	ErrForbidden = Register(New(MakeCode(ServiceCommon, CategoryPermission, 1),
		http.StatusForbidden, codes.PermissionDenied, "Forbidden", "禁止访问"))
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))
	ErrTooManyRequests = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 1),
		http.StatusTooManyRequests, codes.ResourceExhausted, "Too many requests", "请求过多"))
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
	ErrPanic = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2),
		http.StatusInternalServerError, codes.Internal, "Internal server panic", "服务器异常"))
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1),
		http.StatusServiceUnavailable, codes.Unavailable, "Service unavailable", "服务不可用"))
	ErrTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1),
		http.StatusGatewayTimeout, codes.DeadlineExceeded, "Request timeout", "请求超时"))
	ErrConfig = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1),
		http.StatusInternalServerError, codes.Internal, "Configuration error", "配置错误"))

	ErrDatabase = Register(New(MakeCode(ServiceInfraDB, CategoryDatabase, 1),
		http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))
	ErrCache = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1),
		http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))

	ErrStorageUpload = Register(New(MakeCode(ServiceThirdPartyStorage, CategoryNetwork, 1),
		http.StatusInternalServerError, codes.Unavailable, "Failed to upload file", "文件上传失败"))
	ErrModelUnavailable = Register(New(MakeCode(ServiceThirdPartyModel, CategoryNetwork, 1),
		http.StatusBadGateway, codes.Unavailable, "Vision model request failed", "视觉模型请求失败"))
)

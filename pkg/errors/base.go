package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(New(0, http.StatusOK, codes.OK, "Success", "Успешно"))

// 通用请求错误 (类别 01)
var (
	ErrBadRequest       = Register(New(MakeCode(ServiceCommon, CategoryRequest, 0), http.StatusBadRequest, codes.InvalidArgument, "Bad request", "Некорректный запрос"))
	ErrInvalidParam     = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "Недопустимый параметр"))
	ErrValidationFailed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 4), http.StatusBadRequest, codes.InvalidArgument, "Validation failed", "Ошибка валидации"))
)

// 资源、限流、内部错误
var (
	ErrNotFound        = Register(New(MakeCode(ServiceCommon, CategoryResource, 0), http.StatusNotFound, codes.NotFound, "Resource not found", "Ресурс не найден"))
	ErrTooManyRequests = Register(New(MakeCode(ServiceCommon, CategoryRateLimit, 0), http.StatusTooManyRequests, codes.ResourceExhausted, "Too many requests", "Слишком много запросов"))
	ErrInternal        = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0), http.StatusInternalServerError, codes.Internal, "Internal server error", "Внутренняя ошибка сервера"))
	ErrPanic           = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2), http.StatusInternalServerError, codes.Internal, "Service panic", "Сбой сервиса"))
)

// 网络与超时错误
var (
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1), http.StatusServiceUnavailable, codes.Unavailable, "Service unavailable", "Сервис недоступен"))
	ErrRequestTimeout     = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), http.StatusRequestTimeout, codes.DeadlineExceeded, "Request timeout", "Превышено время ожидания запроса"))
	ErrConfig             = Register(New(MakeCode(ServiceCommon, CategoryConfig, 0), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration", "Некорректная конфигурация"))
)

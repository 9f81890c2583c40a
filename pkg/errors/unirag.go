package errors

import "google.golang.org/grpc/codes"

// RAG 服务错误码: AABBCCC, AA = 20

var (
	// 请求参数错误 (类别 01)
	ErrRAGInvalidRequest = Register(New(MakeCode(ServiceRAG, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid query request", "Некорректный запрос"))
	ErrRAGUnknownFilter  = Register(New(MakeCode(ServiceRAG, CategoryRequest, 2), 400, codes.InvalidArgument, "Unknown filter key", "Неизвестный фильтр"))

	// 流水线错误
	ErrRAGNotReady       = Register(New(MakeCode(ServiceRAG, CategoryNetwork, 1), 503, codes.Unavailable, "RAG pipeline not initialized", "RAG-конвейер не инициализирован"))
	ErrRAGQueryTimeout   = Register(New(MakeCode(ServiceRAG, CategoryTimeout, 1), 408, codes.DeadlineExceeded, "Query timeout", "Превышено время обработки запроса"))
	ErrRAGIndexFailed    = Register(New(MakeCode(ServiceRAG, CategoryInternal, 2), 500, codes.Internal, "Index rebuild failed", "Не удалось перестроить индекс"))
	ErrRAGCatalogInvalid = Register(New(MakeCode(ServiceRAG, CategoryResource, 1), 500, codes.FailedPrecondition, "University catalog unavailable", "Каталог университетов недоступен"))

	// 基础设施错误
	ErrVectorStore = Register(New(MakeCode(ServiceInfraVector, CategoryDatabase, 1), 502, codes.Unavailable, "Vector index error", "Ошибка векторного индекса"))
	ErrCache       = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1), 500, codes.Internal, "Query cache error", "Ошибка кэша запросов"))

	// 模型服务错误
	ErrLLMUnavailable = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 1), 502, codes.Unavailable, "LLM provider unavailable", "Языковая модель недоступна"))
	ErrLLMRateLimited = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryRateLimit, 1), 429, codes.ResourceExhausted, "LLM provider rate limited", "Превышен лимит запросов к языковой модели"))
	ErrLLMBadResponse = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryInternal, 1), 502, codes.Internal, "LLM provider returned an invalid response", "Некорректный ответ языковой модели"))
	ErrLLMConfig      = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryConfig, 1), 500, codes.FailedPrecondition, "LLM provider misconfigured", "Неверная конфигурация языковой модели"))
)

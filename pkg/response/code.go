package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists       = 10001
	ErrUserNotFound     = 10002
	ErrAuthFailed       = 10003
	ErrTokenInvalid     = 10004
	ErrNoPermission     = 10005
	ErrAdminCodeInvalid = 10006

	// 内容模块错误 200xx
	ErrPostNotFound         = 20001
	ErrConfirmationRequired = 20002
	ErrUploadFailed         = 20003

	// 支持消息模块错误 300xx
	ErrSupportSendFailed = 30001
	ErrMessageNotFound   = 30002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)

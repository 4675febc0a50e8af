package errs

// 错误码分段：1xxx 参数/校验，11xx 鉴权，12xx 存储
var (
	ErrArgs                 = NewCodeError(1001, "invalid argument")
	ErrContentTooLong       = NewCodeError(1002, "message content too long")
	ErrTokenInvalid         = NewCodeError(1101, "token invalid or expired")
	ErrNotOperator          = NewCodeError(1102, "operator credential required")
	ErrStore                = NewCodeError(1201, "store operation failed")
	ErrConversationNotFound = NewCodeError(1202, "conversation not found")
)

package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown           ErrorCode = 1000
	ErrInvalidParam      ErrorCode = 1001
	ErrNotFound          ErrorCode = 1002
	ErrAlreadyExists     ErrorCode = 1003
	ErrPermissionDenied  ErrorCode = 1004
	ErrTimeout           ErrorCode = 1005
	ErrRateLimitExceeded ErrorCode = 1006

	// 游戏交易错误 (2000-2999)
	ErrInsufficientBalance ErrorCode = 2000
	ErrInsufficientStake   ErrorCode = 2001
	ErrNothingToClaim      ErrorCode = 2002
	ErrAlreadyClaimedToday ErrorCode = 2003
	ErrItemAlreadyOwned    ErrorCode = 2004
	ErrInvalidCraftInput   ErrorCode = 2005
	ErrInvalidAddress      ErrorCode = 2006
	ErrSprintActive        ErrorCode = 2007
	ErrAchievementLocked   ErrorCode = 2008
	ErrAchievementClaimed  ErrorCode = 2009

	// 钱包桥接错误 (3000-3999)
	ErrWalletUnavailable  ErrorCode = 3000
	ErrWalletRejected     ErrorCode = 3001
	ErrWalletNoAccounts   ErrorCode = 3002
	ErrWalletNotConnected ErrorCode = 3003

	// 存储错误 (5000-5999)
	ErrStorageConnect ErrorCode = 5000
	ErrStorageRead    ErrorCode = 5001
	ErrStorageWrite   ErrorCode = 5002
	ErrStateDecode    ErrorCode = 5003

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:           "未知错误",
	ErrInvalidParam:      "无效的参数",
	ErrNotFound:          "资源未找到",
	ErrAlreadyExists:     "资源已存在",
	ErrPermissionDenied:  "权限不足",
	ErrTimeout:           "操作超时",
	ErrRateLimitExceeded: "请求频率超限",

	// 游戏交易错误
	ErrInsufficientBalance: "余额不足",
	ErrInsufficientStake:   "质押余额不足",
	ErrNothingToClaim:      "没有可领取的奖励",
	ErrAlreadyClaimedToday: "今日奖励已领取",
	ErrItemAlreadyOwned:    "道具已拥有",
	ErrInvalidCraftInput:   "无效的合成材料",
	ErrInvalidAddress:      "无效的转账地址",
	ErrSprintActive:        "冲刺已在进行中",
	ErrAchievementLocked:   "成就尚未解锁",
	ErrAchievementClaimed:  "成就奖励已领取",

	// 钱包桥接错误
	ErrWalletUnavailable:  "钱包不可用",
	ErrWalletRejected:     "用户拒绝了连接请求",
	ErrWalletNoAccounts:   "钱包中没有可用账户",
	ErrWalletNotConnected: "钱包未连接",

	// 存储错误
	ErrStorageConnect: "存储连接失败",
	ErrStorageRead:    "状态读取失败",
	ErrStorageWrite:   "状态写入失败",
	ErrStateDecode:    "状态解析失败",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode `json:"code"`    // 错误码
	Message string    `json:"message"` // 错误消息
	Details string    `json:"details"` // 详细信息
	Cause   error     `json:"-"`       // 原始错误
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// IsRejected 判断是否为被拒绝的游戏交易（前置条件不满足，状态未变化）
func IsRejected(err error) bool {
	code := GetCode(err)
	return code >= 2000 && code <= 2999
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam:
		return 400 // Bad Request
	case e.Code == ErrNotFound:
		return 404 // Not Found
	case e.Code == ErrPermissionDenied:
		return 403 // Forbidden
	case e.Code == ErrTimeout:
		return 408 // Request Timeout
	case e.Code == ErrRateLimitExceeded:
		return 429 // Too Many Requests
	case e.Code >= 2000 && e.Code <= 2999:
		return 422 // Unprocessable Entity（交易被拒绝）
	case e.Code >= 3000 && e.Code <= 3999:
		return 502 // Bad Gateway（外部钱包桥接失败）
	case e.Code >= 5000 && e.Code <= 5999:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		Timestamp: time.Now().Unix(),
	}
}

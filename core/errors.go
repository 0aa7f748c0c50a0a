package core

import (
	"context"
	"errors"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持 errors.Is（按 Code 匹配）与 errors.Unwrap（透出底层错误）
//
// 错误分类：
//   - CONFIGURATION：学期未配置、索引缺失等，整次请求立即失败，不重试
//   - UNAVAILABLE：Embedding / 检索后端不可达或超时，重试一次后上抛
//   - MALFORMED：单条课程元数据无法解析，只跳过该条，不影响整批
//   - INVALID_INPUT：请求参数不合法
//   - NOT_FOUND：资源不存在
type DomainError struct {
	Code    string // 错误代码（如 "UNAVAILABLE", "CONFIGURATION"）
	Message string // 错误消息
	Module  string // 模块名称（如 "recall", "embedding", "catalog"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按错误代码匹配，使 errors.Is(err, core.ErrServiceUnavailable) 对任意模块生效。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Module == "" || t.Module == e.Module)
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsUnavailable 把后端返回的未分类错误（网络、超时、驱动错误）归为 UNAVAILABLE，
// 以便重试策略识别；ctx 错误与已分类的 DomainError 原样返回。
func AsUnavailable(module, message string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || IsDomainError(err) {
		return err
	}
	return WrapDomainError(module, ErrorCodeUnavailable, message, err)
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"     // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"   // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT" // 输入无效
	ErrorCodeConfiguration = "CONFIGURATION" // 配置错误（致命）
	ErrorCodeMalformed     = "MALFORMED"     // 单条记录无法解析
)

// 模块名称常量
const (
	ModuleStore     = "store"
	ModuleVector    = "vector"
	ModuleEmbedding = "embedding"
	ModuleRecall    = "recall"
	ModuleFilter    = "filter"
	ModuleCatalog   = "catalog"
	ModuleFeature   = "feature"
	ModuleEngine    = "engine"
)

// 哨兵错误，仅用于 errors.Is 匹配（Module 为空表示匹配任意模块）。
var (
	ErrConfiguration      = &DomainError{Code: ErrorCodeConfiguration, Message: "configuration error"}
	ErrServiceUnavailable = &DomainError{Code: ErrorCodeUnavailable, Message: "service unavailable"}
	ErrMalformedRecord    = &DomainError{Code: ErrorCodeMalformed, Message: "malformed record"}
	ErrInvalidInput       = &DomainError{Code: ErrorCodeInvalidInput, Message: "invalid input"}
	ErrNotFound           = &DomainError{Code: ErrorCodeNotFound, Message: "not found"}
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsConfiguration 检查错误是否为 CONFIGURATION
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformed 检查错误是否为 MALFORMED
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}

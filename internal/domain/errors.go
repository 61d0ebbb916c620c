package domain

import "fmt"

// ValidationError 输入校验错误（原样返回给调用方，不自动重试）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError 创建输入校验错误
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError 引用的位置/人员在快照中不存在
type NotFoundError struct {
	Kind string // "location" / "occupant" / "roll_call"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InternalError 内部错误（存储读取失败、优化器失败等）
// 对外不透出底层实现细节，完整上下文只进日志；调用方可带退避重试
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s", e.Op)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// NewInternalError 包装内部错误
func NewInternalError(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

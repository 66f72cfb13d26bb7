package domain

import (
	"errors"
	"fmt"
)

// ValidationError 本地校验错误，发生在任何网络调用之前，一次只暴露一条
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建校验错误
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// DecodeError 服务端响应形状不符合约定，对本次调用视为致命错误
type DecodeError struct {
	Entity string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Entity, e.Reason)
}

// NewDecodeError 创建解码错误
func NewDecodeError(entity, reason string) *DecodeError {
	return &DecodeError{Entity: entity, Reason: reason}
}

// IsDecodeError 判断是否为解码错误
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// StructuredError 协作方返回的结构化错误 {code, message}，message 原样呈现给用户
type StructuredError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// AsStructured 从错误链中提取结构化错误
func AsStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// UserMessage 将任意传输错误转换为用户可见文案：
// 结构化错误取其 message，其余错误使用兜底文案
func UserMessage(err error) string {
	if se, ok := AsStructured(err); ok && se.Message != "" {
		return se.Message
	}
	if IsDecodeError(err) {
		return "Received an unexpected response. Please try again later."
	}
	return "Something went wrong. Please try again later."
}

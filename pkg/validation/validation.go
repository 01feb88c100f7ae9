// Package validation wraps go-playground/validator and reports violations as
// an ordered list of field-level messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldViolation 单个字段的校验失败信息
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result 校验结果：要么通过，要么带有按字段顺序排列的违规列表
type Result struct {
	Violations []FieldViolation `json:"violations,omitempty"`
}

// OK 是否通过
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// First 第一个违规项，通过时返回 nil
func (r Result) First() *FieldViolation {
	if r.OK() {
		return nil
	}
	return &r.Violations[0]
}

// Err 转换为 error，通过时返回 nil
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Violations: r.Violations}
}

// Error 校验错误
type Error struct {
	Violations []FieldViolation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return e.Violations[0].Message
}

// AsError 判断 err 是否为校验错误
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 使用 json tag 作为字段名
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Check 校验结构体，返回判别结果
func Check(v interface{}) Result {
	err := engine().Struct(v)
	if err == nil {
		return Result{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Violations: []FieldViolation{{Field: "", Rule: "invalid", Message: err.Error()}}}
	}

	out := make([]FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldViolation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return Result{Violations: out}
}

// Struct 校验结构体，失败时返回 *Error
func Struct(v interface{}) error {
	return Check(v).Err()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return "invalid email"
	case "url", "http_url":
		return "invalid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"affiliate-links/internal/slug"

	"github.com/go-playground/validator/v10"
)

// ErrValidation 匹配任意 *ValidationError
var ErrValidation = errors.New("参数校验失败")

// ValidationError 输入不合法, 在任何存储写入之前返回
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Is 让 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LinkInput 创建或更新链接时提交的字段
type LinkInput struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,max=2048,http_url"`
	Slug  string `json:"slug" validate:"omitempty,max=60,slug,unreserved"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "unreserved", func(fl validator.FieldLevel) bool {
		return !slug.IsReserved(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("service: 注册校验规则 " + tag + " 失败: " + err.Error())
	}
}

// normalize 去掉首尾空白, slug 统一小写, 然后校验
func (s *LinkService) normalize(title, url, slugValue string) (LinkInput, error) {
	in := LinkInput{
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(url),
		Slug:  strings.ToLower(strings.TrimSpace(slugValue)),
	}
	if err := s.validate.Struct(in); err != nil {
		return in, toValidationError(err)
	}
	return in, nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "input", Msg: err.Error()}
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "不能为空"
	case "max":
		msg = fmt.Sprintf("长度不能超过 %s 个字符", fe.Param())
	case "http_url":
		msg = "必须是合法的 http/https 地址"
	case "slug":
		msg = "只能包含小写字母, 数字和 -"
	case "unreserved":
		msg = "与系统路由冲突, 请换一个"
	default:
		msg = "格式不正确"
	}
	return &ValidationError{Field: fe.Field(), Msg: msg}
}

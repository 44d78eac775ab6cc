package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

const institutionalEmailTag = "institutional_email"

// RegisterValidators 向 gin 的校验引擎注册自定义标签
// rootDomain 为机构根域名，接受其本身及任意子域
func RegisterValidators(rootDomain string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator.Validate")
	}

	// 错误中使用 JSON 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v.RegisterValidation(institutionalEmailTag, func(fl validator.FieldLevel) bool {
		return model.ValidateInstitutionalEmail(fl.Field().String(), rootDomain)
	})
}

func isInstitutionalEmailError(err error) bool {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	for _, fe := range ve {
		if fe.Tag() == institutionalEmailTag {
			return true
		}
	}
	return false
}

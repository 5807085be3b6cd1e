package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/kanah-health/internal/utils"
)

const phoneTag = "ke_phone"

// RegisterValidators installs the custom binding tags on gin's validator and
// makes field errors report JSON names. Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return v.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return utils.CheckPhone(fl.Field().String()) == nil
	})
}

func phoneMessage(value any) string {
	s, _ := value.(string)
	if p, ok := value.(*string); ok && p != nil {
		s = *p
	}
	if err := utils.CheckPhone(s); err != nil {
		return err.Error()
	}
	return "Invalid phone number"
}

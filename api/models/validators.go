// api/models/validators.go
package models

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/datalens-backend/internal/domain"
)

// RegisterValidators installs the custom binding rules on gin's validator and
// makes field errors report JSON field names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v.RegisterValidation("charttype", func(fl validator.FieldLevel) bool {
		return domain.IsValidChartType(fl.Field().String())
	})
}

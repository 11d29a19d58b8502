package gateway

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/c360/panicstore/keys"
)

// requestValidate checks decoded request bodies. Field names in reported
// errors are the JSON names clients sent.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = requestValidate.RegisterValidation("base_chain", func(fl validator.FieldLevel) bool {
		return keys.IsBaseChain(fl.Field().String())
	})
	_ = requestValidate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return keys.IsCategory(fl.Field().String())
	})
	requestValidate.RegisterStructValidation(validateEntityField, EntitiesRequest{})
}

// validateEntityField runs after field validation; it only judges the field
// once the category itself is known.
func validateEntityField(sl validator.StructLevel) {
	req := sl.Current().Interface().(EntitiesRequest)
	if req.Field == "" || !keys.IsCategory(req.Category) {
		return
	}
	if !keys.HasField(keys.Category(req.Category), req.Field) {
		sl.ReportError(req.Field, "field", "Field", "field", req.Category)
	}
}

// ParseMonitorablesInfo decodes and validates a monitorablesInfo body
func ParseMonitorablesInfo(body []byte) (*MonitorablesInfoRequest, error) {
	var req MonitorablesInfoRequest
	if err := parse(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseEntities decodes and validates an entities body
func ParseEntities(body []byte) (*EntitiesRequest, error) {
	var req EntitiesRequest
	if err := parse(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// parse applies the checks in order: body is a JSON object, required keys
// present, value types, then enumerated values. The first failing stage is
// reported.
func parse(body []byte, req any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil || object == nil {
		return InvalidJSON("body must be a JSON object")
	}

	// A type mismatch leaves the field zero but does not abort decoding.
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(body, req); err != nil && !stderrors.As(err, &typeErr) {
		return InvalidJSON(err.Error())
	}
	mistyped := ""
	if typeErr != nil {
		mistyped = strings.SplitN(typeErr.Field, ".", 2)[0]
	}

	err := requestValidate.Struct(req)
	var verrs validator.ValidationErrors
	if err != nil && !stderrors.As(err, &verrs) {
		return InvalidJSON(err.Error())
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" && fe.Field() != mistyped {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return MissingKeys(missing...)
	}

	if typeErr != nil {
		if mistyped == "baseChains" {
			return InvalidBaseChains(string(object[mistyped]))
		}
		return InvalidJSON(mistyped + " has the wrong type")
	}

	return enumError(verrs)
}

// enumError maps value failures to API errors: base chains first (all
// offenders listed), then category, then field.
func enumError(verrs validator.ValidationErrors) error {
	var badChains []string
	var category, field validator.FieldError
	for _, fe := range verrs {
		switch fe.Tag() {
		case "base_chain":
			badChains = append(badChains, fe.Value().(string))
		case "category":
			if category == nil {
				category = fe
			}
		case "field":
			if field == nil {
				field = fe
			}
		}
	}

	switch {
	case len(badChains) > 0:
		return InvalidBaseChains(badChains...)
	case category != nil:
		return InvalidCategory(category.Value().(string))
	case field != nil:
		return InvalidField(field.Param(), field.Value().(string))
	case len(verrs) > 0:
		return InvalidJSON(verrs[0].Error())
	}
	return nil
}

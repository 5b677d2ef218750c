package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// BindJSON decodes and validates the body. On failure it writes the 400
// response and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		respondBindError(ctx, err, out, "json")
		return false
	}

	return true
}

// BindQuery is BindJSON for query strings; field names come from form tags.
func BindQuery(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindQuery(out)

	if err != nil {
		respondBindError(ctx, err, out, "form")
		return false
	}

	return true
}

func respondBindError(ctx *gin.Context, err error, out interface{}, tagKey string) {
	var maxBytesError *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesError):
		RespondError(ctx, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	case errors.Is(err, io.EOF):
		RespondBadRequest(ctx, "Request body is required")
		return
	}

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		RespondBadRequest(ctx, "Invalid JSON body")
		return
	}

	RespondValidation(ctx, parseBindError(err, out, tagKey))
}

func parseBindError(err error, out interface{}, tagKey string) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := jsonPathFromValidatorError(rootType, fieldError, tagKey)
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: validationMessage(field, rule, param),
			})
		}
		return fields
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := mapStructPathToJSONPath(rootType, strings.Split(unmatchedTypeError.Field, "."), tagKey)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("%s must be of type %s", field, unmatchedTypeError.Type.String()),
		}}
	}

	// query values that do not parse as the target type

	var numError *strconv.NumError

	if errors.As(err, &numError) {
		return []FieldError{{
			Field:   "query",
			Rule:    "type",
			Message: fmt.Sprintf("%q is not a valid number", numError.Num),
		}}
	}

	// final fallback if the error could not be deciphered
	return []FieldError{{Field: "body", Rule: "invalid", Message: err.Error()}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonPathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError, tagKey string) string {
	// Namespace format is usually "<StructName>.<Field>[.<NestedField>...]".
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		namespace = fieldError.Namespace()
	}

	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")

	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	path := mapStructPathToJSONPath(rootType, parts, tagKey)
	if path != "" {
		return path
	}

	return fieldError.Field()
}

func mapStructPathToJSONPath(rootType reflect.Type, parts []string, tagKey string) string {
	current := rootType
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		name := fieldName

		nextType := reflect.Type(nil)
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					name = tagName(sf, tagKey)
					nextType = sf.Type
				}
			}
		}

		out = append(out, name+indexSuffix)

		if nextType != nil {
			current = unwindCollection(nextType)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func tagName(sf reflect.StructField, tagKey string) string {
	tag := sf.Tag.Get(tagKey)
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func validationMessage(field, rule, param string) string {
	switch rule {
	case "required", "notblank":
		return label(field) + " is required"
	case "email":
		return "Valid email required"
	case "calendar_date":
		return "Valid " + strings.ToLower(label(field)) + " required"
	case "min":
		if field == "password" {
			return "Password must be at least " + param + " characters"
		}
		return label(field) + " must be at least " + param
	case "max":
		return label(field) + " must be at most " + param
	case "bcrypt_len":
		return label(field) + " must be at most 72 bytes"
	default:
		if param != "" {
			return fmt.Sprintf("%s failed %s validation (%s)", label(field), rule, param)
		}
		return label(field) + " failed " + rule + " validation"
	}
}

// label turns "start_date" into "Start date".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

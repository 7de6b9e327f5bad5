package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"vehicle-vault-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidation makes validator report JSON field names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

func describeValidation(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be formatted as %s", field, fe.Param())
	}
	return field + " is invalid"
}

func bindError(c *gin.Context, err error) {
	var (
		verrs     validator.ValidationErrors
		tooLarge  *http.MaxBytesError
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		numErr    *numericError
	)
	switch {
	case errors.As(err, &verrs):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, describeValidation(verrs))
	case errors.As(err, &tooLarge):
		middleware.Fail(c, http.StatusRequestEntityTooLarge, middleware.CodePayloadTooLarge, "Request body too large")
	case errors.As(err, &typeErr):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation,
			fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()))
	case errors.As(err, &numErr):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, numErr.Error())
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, "Malformed JSON body")
	default:
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, "Invalid request body")
	}
}

type numericError struct {
	raw    string
	reason string
}

func (e *numericError) Error() string {
	return fmt.Sprintf("%s is not %s", e.raw, e.reason)
}

// parseNumber reads a JSON number or numeric string. ok is false for null
// and the empty string.
func parseNumber(b []byte) (v float64, ok bool, err error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, false, nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		if s == "" {
			return 0, false, nil
		}
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, &numericError{raw: string(b), reason: "a number"}
	}
	return v, true, nil
}

// numeric accepts a JSON number or a numeric string, as HTML forms send.
type numeric float64

func (n *numeric) UnmarshalJSON(b []byte) error {
	v, ok, err := parseNumber(b)
	if err != nil || !ok {
		return err
	}
	*n = numeric(v)
	return nil
}

// integer is numeric restricted to whole values that fit in an int32.
type integer int

func (n *integer) UnmarshalJSON(b []byte) error {
	v, ok, err := parseNumber(b)
	if err != nil || !ok {
		return err
	}
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return &numericError{raw: string(b), reason: "a whole number"}
	}
	*n = integer(v)
	return nil
}

// queryFloat and friends parse optional query parameters. A malformed value
// answers 400 and returns ok=false.
func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, key+" must be a number")
		return nil, false
	}
	return &v, true
}

func queryInt(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, key+" must be an integer")
		return nil, false
	}
	return &v, true
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, key+" must be true or false")
		return nil, false
	}
	return &v, true
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"carelink/pkg/types"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var (
	decoder  = newQueryDecoder()
	validate = newValidator()
)

func newQueryDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("form")
	return d
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError renders err with the status of its code. Messages of internal
// failures are replaced by the public message for the code.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := types.AsError(err)
	if typed == nil {
		typed = types.WrapError(types.CodeInternal, err, "unexpected error")
	}

	meta := types.MetadataFor(typed.Code())
	payload := apiError{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
	}
	if meta.ShowMessage {
		if msg := typed.Message(); msg != "" {
			payload.Message = msg
		}
		payload.Details = typed.Details()
	}

	entry := s.logger.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"error_code": typed.Code(),
	}).WithError(err)
	if meta.HTTPStatus >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	s.writeJSON(w, meta.HTTPStatus, errorEnvelope{Error: payload})
}

// decodeJSON reads a single JSON document into dest and runs its validate
// tags.
func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return types.WrapError(types.CodeValidation, err, "invalid request body").
			WithDetails(map[string]string{"body": err.Error()})
	}

	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}

	return nil
}

func decodeQuery(r *http.Request, dest any) error {
	if err := decoder.Decode(dest, r.URL.Query()); err != nil {
		return types.WrapError(types.CodeValidation, err, "invalid query parameters")
	}
	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return types.WrapError(types.CodeValidation, err, "validation failed")
	}

	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fieldPath(fe)] = validationMessage(fe)
	}
	return types.NewValidation("validation failed").WithDetails(details)
}

// fieldPath drops the request struct name, so nested slice entries read
// like "items[2].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

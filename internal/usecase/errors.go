package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrAssetNotFound  = errors.New("that asset is no longer available")
	ErrAuthorization  = errors.New("not authorized to access this resource")
	ErrExportNotReady = errors.New("export has not finished")
)

type ErrNotFound struct {
	ID      uuid.UUID
	Code    string
	Message string
}

func (e ErrNotFound) Error() string {
	return e.Message
}

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// jsonFieldName reports struct fields by their wire name.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// validationError turns the first validator failure into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg := "failed on " + fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return ValidationError{Field: fe.Field(), Message: msg}
}

func projectNotFound(id uuid.UUID) ErrNotFound {
	return ErrNotFound{
		ID:      id,
		Code:    "project_not_found",
		Message: "project " + id.String() + " not found",
	}
}

func sceneNotFound(id uuid.UUID) ErrNotFound {
	return ErrNotFound{
		ID:      id,
		Code:    "scene_not_found",
		Message: "scene " + id.String() + " not found",
	}
}

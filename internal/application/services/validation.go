package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
)

// Options carries the settings shared by the services
type Options struct {
	// Strict propagates storage failures instead of degrading to empty
	// results.
	Strict  bool
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewValidator returns a validator reporting fields by their json names
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRequest turns the first violated rule into a ValidationError
func validateRequest(v *validator.Validate, m *metrics.Metrics, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}

	fe := verrs[0]
	m.ValidationFailure(fe.Field())
	return entities.NewValidationError(fe.Field(), ruleMessage(fe))
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "excludesall":
		return "must not contain commas or line breaks"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// degrade applies the storage failure policy. Storage errors are logged and
// swallowed unless strict is set; anything else is returned unchanged.
func degrade(log *logger.Logger, strict bool, op string, err error) error {
	if !ports.IsStorageError(err) {
		return err
	}
	log.LogStorageFailure(op, err)
	if strict {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

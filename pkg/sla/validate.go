package sla

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level, concurrency-safe validator instance.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTarget runs struct-tag validation on t and folds every field
// failure into a single error.
func ValidateTarget(t SLATarget) error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("sla target validation failed: %s", strings.Join(msgs, "; "))
}

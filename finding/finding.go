package finding

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFinding is returned by Validate when a finding violates the input
// contract. Use errors.Is to detect it.
var ErrInvalidFinding = errors.New("invalid finding")

// Finding is a single security observation produced by a hunt.
// The JSON field names match the contract of the hunt results service.
type Finding struct {
	// ID is an opaque identifier, unique within one result set.
	ID string `json:"id" validate:"required"`

	// Title is a brief summary of the finding.
	Title string `json:"title" validate:"required"`

	// Severity is one of critical, high, medium or low. Matching is
	// case-insensitive and unknown values are tolerated.
	Severity Severity `json:"severity" validate:"required"`

	// Confidence represents the confidence level (0.0 to 1.0) in the finding.
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// Description provides detailed information about the finding.
	Description string `json:"description,omitempty"`

	// AffectedHosts lists hostnames in the order reported. May be empty.
	AffectedHosts []string `json:"affected_hosts"`

	// EventsCount is the number of raw events backing the finding.
	EventsCount int `json:"events_count" validate:"gte=0"`

	// Techniques holds MITRE ATT&CK technique identifiers (e.g. "T1059.001").
	Techniques []string `json:"techniques,omitempty"`

	// Details carries schema-less backend context (user, process_name, ...).
	Details Details `json:"details,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so errors read the same
// as the payload the caller sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the finding satisfies the input contract.
// It is meant for service boundaries; graph building never calls it.
func (f *Finding) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: finding is nil", ErrInvalidFinding)
	}

	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidFinding, err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, formatValidationError(e))
	}

	if f.ID != "" {
		return fmt.Errorf("%w %q: %s", ErrInvalidFinding, f.ID, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidFinding, strings.Join(msgs, "; "))
}

// ValidateAll validates every finding and reports the first failure along
// with its position in the slice.
func ValidateAll(findings []Finding) error {
	for i := range findings {
		if err := findings[i].Validate(); err != nil {
			return fmt.Errorf("findings[%d]: %w", i, err)
		}
	}
	return nil
}

// HasTechnique reports whether the finding references the given technique.
// Sub-techniques match their parent ("T1059.001" matches "T1059").
func (f *Finding) HasTechnique(technique string) bool {
	technique = strings.ToUpper(strings.TrimSpace(technique))
	if technique == "" {
		return false
	}
	for _, t := range f.Techniques {
		t = strings.ToUpper(t)
		if t == technique || strings.HasPrefix(t, technique+".") {
			return true
		}
	}
	return false
}

// AffectsHost reports whether host appears in AffectedHosts, ignoring case.
func (f *Finding) AffectsHost(host string) bool {
	for _, h := range f.AffectedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func formatValidationError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s (got: %v)", field, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

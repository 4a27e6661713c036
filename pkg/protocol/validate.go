package protocol

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrMissingGraph is returned when a request names neither a snapshot nor a payload.
var ErrMissingGraph = errors.New("snapshot_id or graph_payload is required")

// Validatable is implemented by every request and response type.
type Validatable interface {
	Validate() error
}

// ValidateStruct checks struct tags and formats failures into one error.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func (g GraphSource) check() error {
	if g.SnapshotID == "" && g.GraphPayload == nil {
		return ErrMissingGraph
	}
	if g.GraphPayload != nil {
		if err := g.GraphPayload.Validate(); err != nil {
			return fmt.Errorf("graph_payload: %w", err)
		}
	}
	return nil
}

func (p *GenerationParams) Validate() error {
	if err := ValidateStruct(p); err != nil {
		return err
	}
	if p.ValueMin != nil && p.ValueMax != nil && *p.ValueMin > *p.ValueMax {
		return errors.New("value_min must not exceed value_max")
	}
	return nil
}

func (r GenerationRequest) Validate() error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	if r.GenerationParams != nil {
		if err := r.GenerationParams.Validate(); err != nil {
			return err
		}
	}
	for i, pair := range r.Pairs {
		if pair[0] == "" || pair[1] == "" {
			return fmt.Errorf("pairs[%d] must name two currencies", i)
		}
	}
	return nil
}

func (r TraversalRequest) Validate() error     { return validateRequest(r, r.GraphSource) }
func (r DijkstraRequest) Validate() error      { return validateRequest(r, r.GraphSource) }
func (r BellmanFordRequest) Validate() error   { return validateRequest(r, r.GraphSource) }
func (r FloydWarshallRequest) Validate() error { return validateRequest(r, r.GraphSource) }
func (r MSTRequest) Validate() error           { return validateRequest(r, r.GraphSource) }

func validateRequest(r any, src GraphSource) error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	return src.check()
}

func (r *HealthResponse) Validate() error { return ValidateStruct(r) }

func (r *GenerationResponse) Validate() error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	if err := r.GraphPayload.Validate(); err != nil {
		return fmt.Errorf("graph_payload: %w", err)
	}
	return nil
}

func (r *BFSResponse) Validate() error           { return ValidateStruct(r) }
func (r *DFSResponse) Validate() error           { return ValidateStruct(r) }
func (r *DijkstraResponse) Validate() error      { return ValidateStruct(r) }
func (r *BellmanFordResponse) Validate() error   { return ValidateStruct(r) }
func (r *FloydWarshallResponse) Validate() error { return ValidateStruct(r) }
func (r *MSTResponse) Validate() error           { return ValidateStruct(r) }

// Normalize fills optional collections the service may omit.
func (r *DijkstraResponse) Normalize() {
	if r.Path == nil {
		r.Path = []string{}
	}
	if r.PathDetails == nil {
		r.PathDetails = []PathStep{}
	}
	if r.AllDistances == nil {
		r.AllDistances = map[string]*float64{}
	}
}

func (r *BellmanFordResponse) Normalize() {
	if r.Distances == nil {
		r.Distances = map[string]*float64{}
	}
	if r.Paths == nil {
		r.Paths = map[string][]string{}
	}
}

package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLayoutMismatch is matched by every *LayoutMismatchError through errors.Is.
	ErrLayoutMismatch = errors.New("layout mismatch")

	// ErrBindingMismatch is matched by every *BindingMismatchError through errors.Is.
	ErrBindingMismatch = errors.New("binding mismatch")
)

// LayoutReason says why a vertex location failed validation.
type LayoutReason int

const (
	// LayoutReasonMissing means a shader input location has no attribute in any buffer.
	LayoutReasonMissing LayoutReason = iota

	// LayoutReasonDuplicate means two attributes across the pipeline's buffers share a location.
	LayoutReasonDuplicate

	// LayoutReasonType means the attribute format disagrees with the shader input in scalar kind
	// or component count.
	LayoutReasonType

	// LayoutReasonOverflow means the attribute does not fit inside its buffer's stride.
	LayoutReasonOverflow

	// LayoutReasonStepMode means a buffer's step mode disagrees with its role.
	LayoutReasonStepMode

	// LayoutReasonTransform means the four model matrix rows are not consecutive vec4 attributes.
	LayoutReasonTransform

	// LayoutReasonStageLink means a fragment input has no matching vertex output.
	LayoutReasonStageLink
)

func (r LayoutReason) String() string {
	switch r {
	case LayoutReasonMissing:
		return "missing"
	case LayoutReasonDuplicate:
		return "duplicate"
	case LayoutReasonType:
		return "incompatible type"
	case LayoutReasonOverflow:
		return "exceeds stride"
	case LayoutReasonStepMode:
		return "wrong step mode"
	case LayoutReasonTransform:
		return "malformed transform"
	case LayoutReasonStageLink:
		return "unlinked stage"
	default:
		return fmt.Sprintf("LayoutReason(%d)", int(r))
	}
}

// LayoutMismatchError reports a vertex location the descriptor cannot honour.
type LayoutMismatchError struct {
	Location uint32
	Reason   LayoutReason
	Detail   string
}

func (e *LayoutMismatchError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("layout mismatch at location %d: %s", e.Location, e.Reason)
	}
	return fmt.Sprintf("layout mismatch at location %d: %s: %s", e.Location, e.Reason, e.Detail)
}

// Is makes errors.Is(err, ErrLayoutMismatch) hold.
func (e *LayoutMismatchError) Is(target error) bool { return target == ErrLayoutMismatch }

// BindingReason says why a (group, binding) failed validation.
type BindingReason int

const (
	// BindingReasonMissing means a declared resource was not supplied.
	BindingReasonMissing BindingReason = iota

	// BindingReasonKind means the supplied resource is of a different kind.
	BindingReasonKind

	// BindingReasonVisibility means the supplied resource is not visible to every stage that
	// declares it.
	BindingReasonVisibility

	// BindingReasonUnpaired means a texture or sampler was supplied without its partner.
	BindingReasonUnpaired

	// BindingReasonConflict means two stages declare different resources at the same slot.
	BindingReasonConflict

	// BindingReasonCamera means the camera uniform is not a lone 4x4 matrix in its own group.
	BindingReasonCamera
)

func (r BindingReason) String() string {
	switch r {
	case BindingReasonMissing:
		return "missing"
	case BindingReasonKind:
		return "wrong kind"
	case BindingReasonVisibility:
		return "wrong visibility"
	case BindingReasonUnpaired:
		return "unpaired texture and sampler"
	case BindingReasonConflict:
		return "conflicting declarations"
	case BindingReasonCamera:
		return "invalid camera uniform"
	default:
		return fmt.Sprintf("BindingReason(%d)", int(r))
	}
}

// BindingMismatchError reports a resource slot the descriptor cannot honour.
type BindingMismatchError struct {
	Group   uint32
	Binding uint32
	Reason  BindingReason
	Detail  string
}

func (e *BindingMismatchError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("binding mismatch at (group %d, binding %d): %s", e.Group, e.Binding, e.Reason)
	}
	return fmt.Sprintf("binding mismatch at (group %d, binding %d): %s: %s", e.Group, e.Binding, e.Reason, e.Detail)
}

// Is makes errors.Is(err, ErrBindingMismatch) hold.
func (e *BindingMismatchError) Is(target error) bool { return target == ErrBindingMismatch }

// joinLayout sorts by location and joins. The first error is the primary diagnostic.
func joinLayout(errs []*LayoutMismatchError) error {
	if len(errs) == 0 {
		return nil
	}
	slices.SortStableFunc(errs, func(a, b *LayoutMismatchError) int {
		return cmp.Compare(a.Location, b.Location)
	})
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return errors.Join(out...)
}

// joinBinding sorts by (group, binding) and joins.
func joinBinding(errs []*BindingMismatchError) error {
	if len(errs) == 0 {
		return nil
	}
	slices.SortStableFunc(errs, func(a, b *BindingMismatchError) int {
		return cmp.Or(cmp.Compare(a.Group, b.Group), cmp.Compare(a.Binding, b.Binding))
	})
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return errors.Join(out...)
}

// Mismatches flattens an error returned by this package into its individual mismatches, in
// the order they were reported.
//
// Parameters:
//   - err: an error from a Validate function or NewDescriptor
//
// Returns:
//   - []error: each *LayoutMismatchError or *BindingMismatchError found, nil if none
func Mismatches(err error) []error {
	if err == nil {
		return nil
	}
	var out []error
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case *LayoutMismatchError, *BindingMismatchError:
			out = append(out, v)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(v.Unwrap())
		}
	}
	walk(err)
	return out
}

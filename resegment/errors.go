package resegment

import "github.com/pkg/errors"

// Every error returned by a run wraps exactly one of these. None of them leave a finalized output behind.
var (
	// ErrInvalidGeometryKind: the input dataset is not line based
	ErrInvalidGeometryKind = errors.New("input must be of a PolyLine base shape type")
	// ErrInvalidParameter: the maximum segment length is not a finite positive number
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMalformedGeometry: a feature's parts or vertex data is inconsistent
	ErrMalformedGeometry = errors.New("malformed geometry")
	// ErrCancelled: cancellation was observed between features
	ErrCancelled = errors.New("operation cancelled")
)

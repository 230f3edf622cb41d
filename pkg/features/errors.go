package features

import "errors"

var (
	// ErrDualEncoderSpecification is returned by NewText when both an encoder
	// and an encoder config are given.
	ErrDualEncoderSpecification = errors.New("features: only one of encoder or encoder config may be set")
	ErrEncoderAlreadyBound      = errors.New("features: cannot override encoder")
	ErrEncoderTypeMismatch      = errors.New("features: changing type of encoder")
	ErrNilEncoder               = errors.New("features: encoder must not be nil")
	// ErrEncoderNotConfigured is returned by StrToInts and IntsToStr when no
	// encoder is bound.
	ErrEncoderNotConfigured = errors.New("features: encoder has not been defined")
	// ErrOrphanedMetadata is returned by LoadMetadata when vocabulary files
	// exist for a feature that has no encoder kind configured.
	ErrOrphanedMetadata = errors.New("features: metadata files found but no encoder is configured")
)

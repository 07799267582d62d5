package gdb

import (
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// Option configures a Profiler.
type Option func(*Profiler) error

// WithOpener sets the function used to open feature databases.
func WithOpener(open Opener) Option {
	return func(p *Profiler) error {
		if open == nil {
			return errors.NewValidationError("opener", nil, "opener cannot be nil")
		}
		p.open = open
		return nil
	}
}

// WithLargeLayerThreshold sets the feature count above which only the
// schema of a layer is profiled.
func WithLargeLayerThreshold(n int) Option {
	return func(p *Profiler) error {
		if n < 0 {
			return errors.NewValidationError("large_layer_threshold", n, "must not be negative")
		}
		p.threshold = n
		return nil
	}
}

// WithTopValuesLimit caps the categorical histogram size.
func WithTopValuesLimit(n int) Option {
	return func(p *Profiler) error {
		if n < 1 {
			return errors.NewValidationError("top_values_limit", n, "must be positive")
		}
		p.topN = n
		return nil
	}
}

// WithAttachmentConvention replaces the attachment-table naming scheme.
func WithAttachmentConvention(c AttachmentConvention) Option {
	return func(p *Profiler) error {
		if c == nil {
			return errors.NewValidationError("attachment_convention", nil, "convention cannot be nil")
		}
		p.convention = c
		return nil
	}
}

func defaults() *Profiler {
	return &Profiler{
		threshold:  constants.LargeLayerThreshold,
		topN:       constants.TopValuesLimit,
		convention: DefaultConvention,
	}
}

// SPDX-License-Identifier: MPL-2.0

package cueutil

type (
	decodeOptions struct {
		filename string
		concrete bool
	}

	// Option configures Decode.
	Option func(*decodeOptions)
)

// WithFilename names the document in error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) { o.filename = name }
}

// WithPartial accepts documents that leave schema fields unset. Config files
// use it so that defaults and environment overrides fill the gaps.
func WithPartial() Option {
	return func(o *decodeOptions) { o.concrete = false }
}

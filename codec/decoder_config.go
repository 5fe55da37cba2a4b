package codec

import "github.com/arloliu/bsonkit/internal/options"

// DecoderOption configures a Decoder.
type DecoderOption = options.Option[*Decoder]

// WithCompileRegex toggles regex compilation on decode (default on). When
// enabled, decoded regex elements are passed through the host regexp engine
// and returned as *regexp.Regexp where the pattern and flags compile; the
// raw document.Regex wrapper is returned otherwise. Disable it to round-trip
// patterns whose flags have no host equivalent.
func WithCompileRegex(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) {
		d.compileRegex = enabled
	})
}

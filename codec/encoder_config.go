package codec

import (
	"fmt"

	"github.com/arloliu/bsonkit/errs"
	"github.com/arloliu/bsonkit/format"
	"github.com/arloliu/bsonkit/internal/options"
)

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*Encoder]

// WithCheckKeys toggles key checking. When enabled, keys beginning with '$'
// or containing '.' are rejected with errs.ErrInvalidKeyName. Reference
// subdocuments written for DBRef values are exempt.
func WithCheckKeys(enabled bool) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.checkKeys = enabled
	})
}

// WithMoveID toggles _id promotion. When enabled and the document has an
// "_id" key, that element is written first and any later occurrence is
// suppressed. Promotion applies to the top-level document only.
func WithMoveID(enabled bool) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.moveID = enabled
	})
}

// WithMaxDocumentSize sets the per-call cap on the encoded frame size.
// Documents whose encoding would exceed the cap fail with
// errs.ErrInvalidDocument and return no bytes.
func WithMaxDocumentSize(n int32) EncoderOption {
	return options.New(func(e *Encoder) error {
		if n < format.MinDocumentSize {
			return fmt.Errorf("%w: max document size %d is below the minimum frame size %d",
				errs.ErrInvalidDocument, n, format.MinDocumentSize)
		}
		e.maxSize = n

		return nil
	})
}

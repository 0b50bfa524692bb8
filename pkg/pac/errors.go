package pac

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the codec. All are terminal for the operation
// that raised them: the codec never retries or substitutes defaults.
// Callers match with errors.Is.
var (
	// ErrMalformed reports a byte stream that violates the PAC or NDR
	// encoding rules: truncation, alignment violations, count/length
	// mismatches, or asserted constants (such as the PAC version) that
	// do not hold.
	ErrMalformed = errors.New("malformed PAC data")

	// ErrUnsupportedAlgorithm reports a signature or encryption type
	// with no known implementation or table entry.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrCryptoFailure reports a decryption or integrity failure from
	// the external checksum/cipher collaborator.
	ErrCryptoFailure = errors.New("cryptographic operation failed")

	// ErrMissingElement reports an operation that requires a PAC element
	// (such as a checksum buffer) that is not present.
	ErrMissingElement = errors.New("required PAC element missing")
)

func malformed(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// Package decrypter detects encrypted PDF input. Per this core's scope,
// decryption itself is not attempted: a document whose trailer carries an
// /Encrypt entry fails to open with ErrEncrypted rather than being read
// partially or incorrectly.
package decrypter

import (
	"errors"

	"github.com/dsanderman/pdfcore/internal/types"
)

// ErrEncrypted is returned by Detect when the trailer names an /Encrypt
// dictionary, regardless of its filter or revision.
var ErrEncrypted = errors.New("encrypted PDF: decryption is not supported")

// Detect reports ErrEncrypted if trailer declares an /Encrypt entry, nil
// otherwise. It does not attempt to validate or interpret the entry.
func Detect(trailer types.Dict) error {
	if trailer == nil {
		return nil
	}
	if trailer[types.Name("Encrypt")] != nil {
		return ErrEncrypted
	}
	return nil
}

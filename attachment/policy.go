// Package attachment validates and uploads chat file attachments and keeps
// the previews of drafts that have not been sent yet.
package attachment

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// DefaultMaxBytes is the one size ceiling applied to every composer path.
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrTooLarge       = errors.New("file is too large")
	ErrTypeNotAllowed = errors.New("file type is not allowed")
)

// StrictTypes is the allow-list of the strict composer.
var StrictTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// Policy decides which files may be attached. A nil AllowedTypes accepts
// any type.
type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
}

func StrictPolicy(maxBytes int64) Policy {
	return Policy{MaxBytes: maxBytes, AllowedTypes: StrictTypes}
}

func AnyTypePolicy(maxBytes int64) Policy {
	return Policy{MaxBytes: maxBytes}
}

// PolicyFor maps the CHAT_ATTACHMENT_POLICY setting to a Policy; anything
// but "any" is strict.
func PolicyFor(name string, maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if strings.EqualFold(strings.TrimSpace(name), "any") {
		return AnyTypePolicy(maxBytes)
	}
	return StrictPolicy(maxBytes)
}

func (p Policy) Validate(contentType string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > p.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, size, p.MaxBytes)
	}
	if p.AllowedTypes == nil {
		return nil
	}
	mt := NormalizeType(contentType)
	for _, allowed := range p.AllowedTypes {
		if mt == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrTypeNotAllowed, contentType)
}

// NormalizeType lower-cases a MIME type and strips its parameters.
// Unparseable input yields "application/octet-stream".
func NormalizeType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "application/octet-stream"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream"
	}
	return strings.ToLower(mt)
}

// Describe turns a validation error into the text shown to the user.
func Describe(err error, p Policy) string {
	switch {
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File is too large. Maximum size is %s.", HumanSize(p.MaxBytes))
	case errors.Is(err, ErrTypeNotAllowed):
		return "Only JPEG, PNG and PDF files can be attached."
	case errors.Is(err, ErrEmptyFile):
		return "The selected file is empty."
	default:
		return "The selected file cannot be attached."
	}
}

func HumanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

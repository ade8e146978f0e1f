package domain

// ValidatorKind names the HTTP cache validator a feed server handed out.
type ValidatorKind string

const (
	ValidatorNone         ValidatorKind = ""
	ValidatorETag         ValidatorKind = "ETag"
	ValidatorLastModified ValidatorKind = "Last-Modified"
)

// Validator is the cache token stored on a source. The zero value means the
// source has none and is polled unconditionally.
type Validator struct {
	Kind  ValidatorKind `json:"kind,omitempty"`
	Value string        `json:"value,omitempty"`
}

func (v Validator) IsZero() bool {
	return v.Kind == ValidatorNone && v.Value == ""
}

func (v Validator) Validate() error {
	switch v.Kind {
	case ValidatorNone:
		if v.Value != "" {
			return ErrInvalidValidator
		}
	case ValidatorETag, ValidatorLastModified:
		if v.Value == "" {
			return ErrInvalidValidator
		}
	default:
		return ErrInvalidValidator
	}
	return nil
}

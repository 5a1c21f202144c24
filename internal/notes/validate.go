package notes

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxNameLength bounds category and tag names, in runes.
const MaxNameLength = 50

// colorRules accept "" or #RRGGBB. is.HexColor alone also takes #RGB and a
// missing '#'; the fixed length rules both out.
var colorRules = []validation.Rule{
	validation.Length(7, 7).Error("must be a #RRGGBB color"),
	is.HexColor.Error("must be a #RRGGBB color"),
}

// Validate checks a category. An empty color is allowed.
func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&c.Color, colorRules...),
		validation.Field(&c.ParentID, validation.NotIn(c.ID).Error("must not reference the category itself")),
	)
}

// Validate checks a tag. An empty color is allowed.
func (t Tag) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&t.Color, colorRules...),
	)
}

func invalid(kind string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalid, kind, err)
}

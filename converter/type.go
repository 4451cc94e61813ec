package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupported = errors.New("unsupported conversion")

// Type is an output format ImageMagick can write.
type Type struct {
	s string
}

var (
	JPEG = Type{"jpeg"}
	PNG  = Type{"png"}
	WEBP = Type{"webp"}
	TIFF = Type{"tiff"}
	BMP  = Type{"bmp"}
	PDF  = Type{"pdf"}
)

func MakeFromString(s string) (Type, error) {
	switch strings.ToLower(s) {
	case JPEG.s, "jpg":
		return JPEG, nil
	case PNG.s:
		return PNG, nil
	case WEBP.s:
		return WEBP, nil
	case TIFF.s, "tif":
		return TIFF, nil
	case BMP.s:
		return BMP, nil
	case PDF.s:
		return PDF, nil
	}

	return Type{}, fmt.Errorf("%w: unknown type %q", ErrUnsupported, s)
}

// FromPath derives the type from a file extension.
func FromPath(path string) (Type, error) {
	return MakeFromString(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := MakeFromString(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Type) String() string {
	return t.s
}

func (t Type) Extension() string {
	if t == JPEG {
		return ".jpg"
	}
	return "." + t.s
}

func (t Type) MimeType() string {
	if t == PDF {
		return "application/pdf"
	}
	return "image/" + t.s
}

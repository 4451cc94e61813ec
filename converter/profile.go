package converter

import (
	"fmt"
	"strings"
)

// Profile is a Ghostscript PDFSETTINGS preset.
type Profile struct {
	s string
}

var (
	// Screen targets 72 dpi, the smallest output.
	Screen = Profile{"screen"}
	// Ebook targets 150 dpi.
	Ebook = Profile{"ebook"}
	// Prepress targets 300 dpi and keeps colour for print shops.
	Prepress = Profile{"prepress"}
	// Printer targets 300 dpi, like Acrobat's "Print Optimized".
	Printer = Profile{"printer"}
	// Default is Ghostscript's general purpose preset.
	Default = Profile{"default"}
)

func MakeProfileFromString(s string) (Profile, error) {
	switch strings.ToLower(s) {
	case "":
		return Ebook, nil
	case Screen.s:
		return Screen, nil
	case Ebook.s:
		return Ebook, nil
	case Prepress.s:
		return Prepress, nil
	case Printer.s:
		return Printer, nil
	case Default.s:
		return Default, nil
	}

	return Profile{}, fmt.Errorf("%w: unknown distiller profile %q", ErrUnsupported, s)
}

func (p *Profile) UnmarshalText(text []byte) error {
	v, err := MakeProfileFromString(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Profile) String() string {
	return p.s
}

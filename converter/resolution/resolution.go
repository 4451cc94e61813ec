// Package resolution picks the resize target handed to ImageMagick based on
// the orientation of the source image.
package resolution

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed dimensions")

type Orientation struct {
	s string
}

var (
	Landscape = Orientation{"landscape"}
	Portrait  = Orientation{"portrait"}
	Square    = Orientation{"square"}
)

func (o Orientation) String() string {
	return o.s
}

// Dimensions are the pixel size of an inspected file.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) Orientation() Orientation {
	switch {
	case d.Height > d.Width:
		return Portrait
	case d.Height == d.Width:
		return Square
	default:
		return Landscape
	}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Resolution is a requested resize target. Height is zero when only a
// width was requested.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) HasHeight() bool {
	return r.Height > 0
}

func (r Resolution) String() string {
	if !r.HasHeight() {
		return strconv.Itoa(r.Width)
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Geometry appends the ImageMagick "only shrink larger" flag.
func (r Resolution) Geometry() string {
	return r.String() + ">"
}

func ParseResolution(s string) (Resolution, error) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	switch len(parts) {
	case 1:
		w, err := positive(parts[0])
		if err != nil {
			return Resolution{}, fmt.Errorf("%w: resolution %q", ErrMalformed, s)
		}
		return Resolution{Width: w}, nil
	case 2:
		d, err := parsePair(parts)
		if err != nil {
			return Resolution{}, fmt.Errorf("%w: resolution %q", ErrMalformed, s)
		}
		return Resolution{Width: d.Width, Height: d.Height}, nil
	}

	return Resolution{}, fmt.Errorf("%w: resolution %q", ErrMalformed, s)
}

func ParseDimensions(s string) (Dimensions, error) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	if len(parts) != 2 {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	d, err := parsePair(parts)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	return d, nil
}

// ParseIdentify reads the output of `identify -format "%wx%h|"`. Multi-frame
// files print one segment per frame; the first frame is used.
func ParseIdentify(out string) (Dimensions, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(out), "|")
	if first == "" {
		return Dimensions{}, fmt.Errorf("%w: empty identify output", ErrMalformed)
	}

	return ParseDimensions(first)
}

// Resolve orients the requested resolution to match the source. Portrait
// sources get the pair swapped, square sources collapse to the requested
// height on both sides, landscape sources and width-only requests pass
// through.
func Resolve(requested Resolution, source Dimensions) Resolution {
	if !requested.HasHeight() {
		return requested
	}

	switch source.Orientation() {
	case Portrait:
		return Resolution{Width: requested.Height, Height: requested.Width}
	case Square:
		return Resolution{Width: requested.Height, Height: requested.Height}
	}

	return requested
}

func parsePair(parts []string) (Dimensions, error) {
	w, err := positive(parts[0])
	if err != nil {
		return Dimensions{}, err
	}

	h, err := positive(parts[1])
	if err != nil {
		return Dimensions{}, err
	}

	return Dimensions{Width: w, Height: h}, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}

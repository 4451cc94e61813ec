package model

import (
	"io"
	"time"
)

// ImageRequest addresses a stored object and how to render it.
type ImageRequest struct {
	Key        string `params:"key"`
	Resolution string `params:"resolution"`
	Quality    string `params:"quality"`
	Type       string `params:"type"`
}

type ImageResponse struct {
	Type               string
	ContentLength      int64
	ContentDisposition string

	Body io.Reader
}

// Job is one local conversion. Empty fields fall back to configured
// defaults.
type Job struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Resolution  string `json:"resolution,omitempty"`
	Quality     int    `json:"quality,omitempty"`
	Type        string `json:"type,omitempty"`
	Profile     string `json:"profile,omitempty"`

	// NoResize converts without touching the resolution.
	NoResize bool `json:"no_resize,omitempty"`
}

type Result struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Tool        string `json:"tool,omitempty"`
	Status      string `json:"status"`
	ExitCode    int    `json:"exit_code"`
	Signal      string `json:"signal,omitempty"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`

	OriginalSize     int64         `json:"original_size"`
	OutputSize       int64         `json:"output_size"`
	SavedSpace       int64         `json:"saved_space"`
	CompressionRatio float64       `json:"compression_ratio"`
	Duration         time.Duration `json:"duration"`

	Err error `json:"-"`
}

// CalculateCompressionRatio fills SavedSpace and the percentage saved.
func (r *Result) CalculateCompressionRatio() {
	if r.OriginalSize > 0 {
		r.SavedSpace = r.OriginalSize - r.OutputSize
		r.CompressionRatio = float64(r.SavedSpace) / float64(r.OriginalSize) * 100
	}
}

func (r *Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0 && r.Signal == ""
}

package report

import "errors"

var (
	// ErrGeneratorUnavailable indicates the narrative generator is unreachable
	ErrGeneratorUnavailable = errors.New("narrative generator unavailable")

	// ErrGenerationFailed indicates the generator rejected the request
	ErrGenerationFailed = errors.New("report generation failed")
)

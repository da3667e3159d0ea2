// Package opencv provides OpenCV-backed face detection and webcam capture.
//
// The implementation needs OpenCV and is compiled only with the gocv build tag:
//
//	go build -tags gocv ./...
//
// Without the tag every constructor returns ErrUnavailable, so callers can fall
// back to the pure Go pigo detector and file sources.
package opencv

import "errors"

// ErrUnavailable is returned when the binary was built without the gocv tag
var ErrUnavailable = errors.New("opencv: gocv build tag is not enabled")

// ErrCameraUnavailable is returned when the capture device cannot be opened
var ErrCameraUnavailable = errors.New("opencv: camera unavailable")

// DefaultDevice is the capture device index used when none is configured
const DefaultDevice = 0

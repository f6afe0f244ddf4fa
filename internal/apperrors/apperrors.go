// Package apperrors defines the closed failure taxonomy of the image proxy.
// Every pipeline stage reports into one of these variants; each carries a
// stable machine code, an HTTP status class, and remediation text so the
// transport layer can render a complete diagnostic without extra state.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Code string

const (
	CodeInvalidImageURL       Code = "IMG_001"
	CodeImageFetchFailed      Code = "IMG_002"
	CodeImageProcessingFailed Code = "IMG_003"
	CodeInvalidImageFormat    Code = "IMG_004"
	CodeImageTooLarge         Code = "IMG_005"
	CodeInvalidWidth          Code = "VAL_001"
	CodeInvalidQuality        Code = "VAL_002"
	CodeMissingRequiredParam  Code = "VAL_003"
	CodeCacheError            Code = "CACHE_001"
	CodeInternal              Code = "SYS_001"
	CodeServiceUnavailable    Code = "SYS_002"
)

const docBaseURL = "https://github.com/dunamismax/pixelproxy"

// Error is one value of the taxonomy. Instances are immutable after
// construction; the detail and remediation strings are rendered at the point
// of failure with the offending values baked in.
type Error struct {
	Code     Code
	Detail   string
	HowToFix string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Detail
}

func InvalidImageURL() *Error {
	return &Error{
		Code:     CodeInvalidImageURL,
		Detail:   "Invalid image URL - The provided URL is not valid",
		HowToFix: "Provide a valid URL starting with http:// or https://",
	}
}

func ImageFetchFailed(url string) *Error {
	return &Error{
		Code:     CodeImageFetchFailed,
		Detail:   fmt.Sprintf("Image fetch failed - Unable to download image from %s", url),
		HowToFix: "Ensure the image URL is accessible and the server is responding",
	}
}

func ImageProcessingFailed(reason string) *Error {
	return &Error{
		Code:     CodeImageProcessingFailed,
		Detail:   fmt.Sprintf("Image processing failed - Error processing image: %s", reason),
		HowToFix: "Try a different image or check if the image file is corrupted",
	}
}

func InvalidImageFormat(format string) *Error {
	return &Error{
		Code:     CodeInvalidImageFormat,
		Detail:   fmt.Sprintf("Invalid image format - Format '%s' is not supported", format),
		HowToFix: fmt.Sprintf("Use one of the supported formats: jpeg, jpg, png, webp. Got '%s'", format),
	}
}

func ImageTooLarge() *Error {
	return &Error{
		Code:     CodeImageTooLarge,
		Detail:   "Image too large - Image dimensions exceed maximum allowed size",
		HowToFix: "Reduce the image dimensions or use a smaller source image",
	}
}

func InvalidWidth(width int) *Error {
	return &Error{
		Code:     CodeInvalidWidth,
		Detail:   fmt.Sprintf("Invalid width - Width must be between 1 and 3840, got %d", width),
		HowToFix: "Provide a width value between 1 and 3840",
	}
}

func InvalidQuality(quality int) *Error {
	return &Error{
		Code:     CodeInvalidQuality,
		Detail:   fmt.Sprintf("Invalid quality - Quality must be between 1 and 100, got %d", quality),
		HowToFix: "Provide a quality value between 1 and 100",
	}
}

func MissingRequiredParameter(param string) *Error {
	return &Error{
		Code:     CodeMissingRequiredParam,
		Detail:   fmt.Sprintf("Missing required parameter - %s is required", param),
		HowToFix: fmt.Sprintf("Include the '%s' parameter in your request", param),
	}
}

func CacheError(reason string) *Error {
	return &Error{
		Code:     CodeCacheError,
		Detail:   fmt.Sprintf("Cache error - Failed to access cache: %s", reason),
		HowToFix: "Try again later or contact support if the issue persists",
	}
}

func Internal() *Error {
	return &Error{
		Code:     CodeInternal,
		Detail:   "Internal server error - An unexpected error occurred",
		HowToFix: "Try again later. If the problem persists, contact support",
	}
}

func ServiceUnavailable() *Error {
	return &Error{
		Code:     CodeServiceUnavailable,
		Detail:   "Service unavailable - The service is temporarily unavailable",
		HowToFix: "The service is temporarily down. Please try again in a few minutes",
	}
}

// From maps an arbitrary error onto the taxonomy. Errors that already carry a
// variant pass through unchanged; anything uncategorized becomes SYS_001.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal()
}

// Status reports the HTTP status class for a code.
func (c Code) Status() int {
	switch c {
	case CodeInvalidImageURL, CodeInvalidImageFormat, CodeInvalidWidth,
		CodeInvalidQuality, CodeMissingRequiredParam:
		return http.StatusBadRequest
	case CodeImageFetchFailed, CodeImageProcessingFailed, CodeImageTooLarge,
		CodeCacheError:
		return http.StatusUnprocessableEntity
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (c Code) Title() string {
	switch c.Status() {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusUnprocessableEntity:
		return "Processing Error"
	case http.StatusServiceUnavailable:
		return "Service Unavailable"
	default:
		return "Internal Server Error"
	}
}

// ProblemDetails is the wire shape of a failed request. Field names are part
// of the compatibility surface and must not change.
type ProblemDetails struct {
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Status    int     `json:"status"`
	Detail    string  `json:"detail"`
	Instance  *string `json:"instance"`
	ErrorCode string  `json:"errorCode"`
	HowToFix  string  `json:"howToFix"`
	MoreInfo  string  `json:"moreInfo"`
}

func (e *Error) Problem() ProblemDetails {
	return ProblemDetails{
		Type:      fmt.Sprintf("%s/errors/%s", docBaseURL, e.Code),
		Title:     e.Code.Title(),
		Status:    e.Code.Status(),
		Detail:    e.Detail,
		Instance:  nil,
		ErrorCode: string(e.Code),
		HowToFix:  e.HowToFix,
		MoreInfo:  fmt.Sprintf("%s#error-%s", docBaseURL, strings.ToLower(string(e.Code))),
	}
}

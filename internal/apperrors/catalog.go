package apperrors

// Catalog enumerates every variant of the taxonomy as "<code>: <message>"
// strings for the diagnostics endpoint. Parametrized variants use their
// message templates with placeholder markers; the list is purely
// informational and has no side effects.
func Catalog() []string {
	variants := []*Error{
		InvalidImageURL(),
		ImageFetchFailed("{url}"),
		ImageProcessingFailed("{reason}"),
		InvalidImageFormat("{format}"),
		ImageTooLarge(),
		{
			Code:   CodeInvalidWidth,
			Detail: "Invalid width - Width must be between 1 and 3840, got {width}",
		},
		{
			Code:   CodeInvalidQuality,
			Detail: "Invalid quality - Quality must be between 1 and 100, got {quality}",
		},
		MissingRequiredParameter("{param}"),
		CacheError("{reason}"),
		Internal(),
		ServiceUnavailable(),
	}

	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, v.Error())
	}
	return out
}

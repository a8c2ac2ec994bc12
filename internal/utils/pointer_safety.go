package utils

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// PtrIfNotEmpty returns nil for the zero value, so optional API fields are
// omitted from JSON bodies instead of being sent as empty strings.
func PtrIfNotEmpty[T comparable](v T) *T {
	if v == *new(T) {
		return nil
	}
	return &v
}

package cmd

// InvalidInputError is returned when required command-line arguments are
// missing or empty. It is detected before any file is opened.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

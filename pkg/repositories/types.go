package repositories

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrInvalid wraps a validation failure of submitted data.
type ErrInvalid struct {
	Err error
}

func (e *ErrInvalid) Error() string {
	return "invalid: " + e.Err.Error()
}

func (e *ErrInvalid) Unwrap() error {
	return e.Err
}

func IsInvalid(err error) bool {
	_, ok := err.(*ErrInvalid)
	return ok
}

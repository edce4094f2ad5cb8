package errors

import (
	"fmt"
)

var (
	ErrNotFound       = fmt.Errorf("not found")
	ErrForbidden      = fmt.Errorf("access denied")
	ErrInvalidInput   = fmt.Errorf("invalid input")
	ErrNoOpTransition = fmt.Errorf("quote is already in the specified status")
)

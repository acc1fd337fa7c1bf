package coins

import "errors"

var (
	ErrPackageNotFound  = errors.New("coin package not found")
	ErrOrderNotFound    = errors.New("coin order not found")
	ErrAlreadyProcessed = errors.New("order already processed")
)

package store

import "errors"

var ErrItemNotFound = errors.New("store item not found")

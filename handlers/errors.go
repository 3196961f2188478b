package handlers

import "errors"

var errInsufficientHoldings = errors.New("insufficient gold holdings")

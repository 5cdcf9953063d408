package middlewares

import "errors"

var ErrAccountInactive = errors.New("account is deactivated")

package statuspage

import "errors"

// ErrAlreadySubscribed indicates a duplicate (email, organization) pair.
var ErrAlreadySubscribed = errors.New("already subscribed")

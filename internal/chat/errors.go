package chat

import (
	"errors"
	"fmt"
	"time"
)

// ErrPeerFlood is reported when the platform hard-blocks further invites.
// There is no wait-and-retry for this condition; the current batch must be
// abandoned.
var ErrPeerFlood = errors.New("peer flood: operation blocked by the platform")

// ErrPrivacyRestricted is reported when a single target's privacy settings
// forbid the operation. Only that target is affected.
var ErrPrivacyRestricted = errors.New("user privacy settings restrict this operation")

// ErrUnavailable is returned by every method of the placeholder client used
// in builds without a platform transport.
var ErrUnavailable = errors.New("chat platform client is not available in this build")

// FloodWaitError carries the mandatory cool-down the platform demands
// before the failed call may be retried.
type FloodWaitError struct {
	Wait time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.Wait)
}

// AsFloodWait unwraps err into a *FloodWaitError if it is one.
func AsFloodWait(err error) (*FloodWaitError, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw, true
	}
	return nil, false
}

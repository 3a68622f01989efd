package onebusaway

import "errors"

var (
	// ErrAuthentication marks a 401 or 403 from the API: the key is
	// missing, wrong or revoked. Retrying cannot help.
	ErrAuthentication = errors.New("onebusaway: invalid credentials")

	// ErrCommunication marks timeouts, transport failures and exhausted
	// rate-limit retries. The condition is usually transient.
	ErrCommunication = errors.New("onebusaway: communication failure")

	// errRateLimited is the internal marker for a 429 response. It never
	// escapes the client; exhausted retries surface as ErrCommunication.
	errRateLimited = errors.New("onebusaway: rate limited")
)

package errs

import "errors"

var AuthenticationFailed = errors.New("authentication failed")

var (
	// CodeforcesUnavailable marks the platform's maintenance page / 504
	// responses. Callers skip the current operation instead of failing hard.
	CodeforcesUnavailable = errors.New("codeforces is temporarily unavailable")

	// RatingChangesUnavailable means the contest finished but official
	// rating changes are not published yet.
	RatingChangesUnavailable = errors.New("rating changes are unavailable")

	NotFound        = errors.New("not found")
	NonJSONResponse = errors.New("non-JSON response")

	HandleAlreadyBound    = errors.New("handle already bound to another user")
	NoPendingVerification = errors.New("no pending verification")
	NoProblemFound        = errors.New("no problem matches search criteria")
)

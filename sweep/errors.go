package sweep

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks configuration errors (zero-site topology, empty file
	// inventory, malformed topology). Fatal for the affected sweep branch.
	ErrConfig = errors.New("configuration error")

	// ErrNoFeasibleSite is returned by Distribute when no site has enough
	// remaining budget for a file.
	ErrNoFeasibleSite = errors.New("no feasible site")

	// ErrMalformedResult marks a result artifact that exists but cannot be parsed.
	ErrMalformedResult = errors.New("malformed result artifact")
)

// configErrorf wraps ErrConfig with a formatted message.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// NoFeasibleSiteError describes the file that could not be placed.
type NoFeasibleSiteError struct {
	File      string
	Size      int64
	Remaining []SiteBudget // remaining budget of every site at the moment of failure
}

func (e *NoFeasibleSiteError) Error() string {
	return fmt.Sprintf("%v: file %q (size %d) fits on none of %d sites", ErrNoFeasibleSite, e.File, e.Size, len(e.Remaining))
}

// Is makes errors.Is(err, ErrNoFeasibleSite) match.
func (e *NoFeasibleSiteError) Is(target error) bool {
	return target == ErrNoFeasibleSite
}

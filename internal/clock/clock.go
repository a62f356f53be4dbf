package clock

import "time"

// Clock supplies the timestamps stamped onto revisions and comments,
// abstracted so tests get deterministic w:date attributes.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

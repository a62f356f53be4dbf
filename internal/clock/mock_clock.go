package clock

import "time"

// Fixed is a Clock pinned to one instant, for testing.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// MustAt returns a Fixed clock parsed from an RFC 3339 string. It panics on
// a malformed literal, so it is for use in test setup with fixed inputs.
func MustAt(rfc3339 string) Fixed {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		panic(err)
	}
	return Fixed{T: t}
}

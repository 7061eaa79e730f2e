// Package status defines the ordered classification of a job's submission state.
package status

import (
	"fmt"
	"strconv"
	"strings"
)

// Status classifies a job's execution status.
// Values are ordered by significance, so gating reads naturally:
//
//	if s < status.Submitted {
//		submit()
//	}
//
// which prevents a submission of a job that is already submitted, queued,
// active or in an error state.
type Status int

const (
	Unknown    Status = 1
	Registered Status = 2
	Inactive   Status = 3
	Submitted  Status = 4
	Held       Status = 5
	Queued     Status = 6
	Active     Status = 7
	Error      Status = 8

	// User is the first value of the range reserved for caller-defined stati.
	User Status = 128
)

var names = map[Status]string{
	Unknown:    "unknown",
	Registered: "registered",
	Inactive:   "inactive",
	Submitted:  "submitted",
	Held:       "held",
	Queued:     "queued",
	Active:     "active",
	Error:      "error",
}

// String returns the lowercase name of the status.
func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	if s.IsUser() {
		return fmt.Sprintf("user+%d", int(s-User))
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsUser reports whether s lies in the caller-defined range.
func (s Status) IsUser() bool {
	return s >= User
}

// Valid reports whether s is a named status or a user status.
func (s Status) Valid() bool {
	_, ok := names[s]
	return ok || s.IsUser()
}

// Parse converts a status name or decimal ordinal into a Status.
func Parse(v string) (Status, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	for s, name := range names {
		if name == v {
			return s, nil
		}
	}

	if rest, ok := strings.CutPrefix(v, "user+"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid user status %q", v)
		}
		s := User + Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("user status %q out of range", v)
		}
		return s, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unknown status %q", v)
	}
	s := Status(n)
	if !s.Valid() {
		return 0, fmt.Errorf("invalid status ordinal %d", n)
	}
	return s, nil
}

// Max returns the most significant of the given stati.
func Max(s Status, more ...Status) Status {
	for _, m := range more {
		if m > s {
			s = m
		}
	}
	return s
}

// Min returns the least significant of the given stati.
func Min(s Status, more ...Status) Status {
	for _, m := range more {
		if m < s {
			s = m
		}
	}
	return s
}

package activity

import (
	"errors"
	"strconv"
	"strings"
)

// Kind identifies the sport an entry was logged for.
type Kind string

// Activity kinds as they travel on the wire.
const (
	KindBike Kind = "BIKE"
	KindRun  Kind = "RUN"
	KindWalk Kind = "WALK"
	KindSki  Kind = "SKI"
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{KindBike, KindRun, KindWalk, KindSki}

// MaxDay is the last zero-indexed calendar day (December 24).
const MaxDay = 23

// Domain errors
var (
	ErrUnknownKind     = errors.New("unknown activity kind")
	ErrNegativeValue   = errors.New("activity value must not be negative")
	ErrInvalidDistance = errors.New("distance must be a whole non-negative number")
	ErrDayOutOfRange   = errors.New("day must be between 0 and 23")
)

var labels = map[Kind]string{
	KindBike: "Bike",
	KindRun:  "Run",
	KindWalk: "Walk",
	KindSki:  "Ski",
}

// ParseKind converts a wire or form value into a Kind.
// PRE: none
// POST: returns the matching Kind (case-insensitive) or ErrUnknownKind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := labels[k]; !ok {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// Label returns the human readable name, or the raw value for unknown kinds.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Info is an activity together with its distance value.
type Info struct {
	Activity Kind
	Value    int
}

// Validate checks the Info invariants.
// PRE: none
// POST: returns nil if the kind is known and the value is non-negative
func (i Info) Validate() error {
	if !i.Activity.Valid() {
		return ErrUnknownKind
	}
	if i.Value < 0 {
		return ErrNegativeValue
	}
	return nil
}

// Logged is an activity a user has registered for a calendar day.
// INVARIANT: 0 <= Day <= MaxDay
type Logged struct {
	Day  int
	Info Info
}

// Validate checks the Logged invariants.
// PRE: none
// POST: returns nil if the day is in range and Info is valid
func (l Logged) Validate() error {
	if l.Day < 0 || l.Day > MaxDay {
		return ErrDayOutOfRange
	}
	return l.Info.Validate()
}

// ParseDistance parses user input for a distance.
// Only trimmed base-10 integers >= 0 are accepted; "1.5", "-3", "abc" and "" are rejected.
// PRE: none
// POST: returns the parsed distance or ErrInvalidDistance
func ParseDistance(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidDistance
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrInvalidDistance
	}
	return n, nil
}

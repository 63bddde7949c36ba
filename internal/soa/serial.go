package soa

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DailyCounterReset is the counter a serial starts at on a new day. Zero keeps
// the first serial of a day ("YYYYMMDD00") strictly above every serial of the
// previous day, which is all secondaries need to resync.
const DailyCounterReset = 0

// MaxDailyCounter is the highest two-digit counter value.
const MaxDailyCounter = 99

const dayLayout = "20060102"

var (
	// ErrSerialOverflow is returned when a day runs out of counter values.
	ErrSerialOverflow = errors.New("serial counter overflow")
	// ErrInvalidSerial is returned for serials that are not 10 ASCII digits.
	ErrInvalidSerial = errors.New("serial must be 10 digits (YYYYMMDDnn)")
)

// Serial is a date based zone serial: an 8-digit day and a 2-digit counter.
type Serial struct {
	Day     string
	Counter int
}

// ParseSerial parses "YYYYMMDDnn".
func ParseSerial(s string) (Serial, error) {
	if len(s) != 10 {
		return Serial{}, fmt.Errorf("%w: %q", ErrInvalidSerial, s)
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return Serial{}, fmt.Errorf("%w: %q", ErrInvalidSerial, s)
		}
	}
	counter, _ := strconv.Atoi(s[8:])
	return Serial{Day: s[:8], Counter: counter}, nil
}

// FirstSerial returns the first serial of today.
func FirstSerial(today time.Time) Serial {
	return Serial{Day: today.Format(dayLayout), Counter: DailyCounterReset}
}

// String renders the serial as 10 digits.
func (s Serial) String() string {
	return fmt.Sprintf("%s%02d", s.Day, s.Counter)
}

// Uint32 returns the numeric serial value.
func (s Serial) Uint32() uint32 {
	v, _ := strconv.ParseUint(s.String(), 10, 32)
	return uint32(v)
}

// Next returns the serial that follows s on today.
//
// On the same day the counter goes up by one. On a later day the serial
// restarts at (today, DailyCounterReset). When the recorded day is after
// today (clock skew) the counter goes up on the recorded day so the serial
// never decreases.
func (s Serial) Next(today time.Time) (Serial, error) {
	day := today.Format(dayLayout)
	if s.Day < day {
		return Serial{Day: day, Counter: DailyCounterReset}, nil
	}
	if s.Counter >= MaxDailyCounter {
		return Serial{}, fmt.Errorf("%w: %s already used %d updates", ErrSerialOverflow, s.Day, MaxDailyCounter+1)
	}
	return Serial{Day: s.Day, Counter: s.Counter + 1}, nil
}

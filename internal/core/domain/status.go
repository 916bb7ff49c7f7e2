package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidStatus     = errors.New("invalid status code")
	ErrInvalidShardKey   = errors.New("invalid shard key (expected logs:YYYY-MM)")
	ErrInvalidEntryKey   = errors.New("invalid shard entry key (expected habitID_YYYY-MM-DD)")
	ErrInvalidEntryValue = errors.New("invalid shard entry value")
)

// Status is the completion state of a single (habit, date, slot) triple.
// The codes are the 2-bit values used by the packed day representation,
// so they must never be renumbered.
type Status int

const (
	StatusPending  Status = 0
	StatusDone     Status = 1
	StatusDonePlus Status = 2
	StatusDeferred Status = 3
)

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusDeferred
}

// IsDone reports completion; DonePlus counts as done with overachievement.
func (s Status) IsDone() bool {
	return s == StatusDone || s == StatusDonePlus
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusDonePlus:
		return "done_plus"
	case StatusDeferred:
		return "deferred"
	}
	return "unknown"
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "done":
		return StatusDone, nil
	case "done_plus":
		return StatusDonePlus, nil
	case "deferred":
		return StatusDeferred, nil
	}
	return 0, ErrInvalidStatus
}

// DayStatus holds one Status per time of day. Core logic works on this
// struct; the packed integer form exists only at the serialization
// boundary (PackDay / UnpackDay).
type DayStatus struct {
	Slots [3]Status `json:"slots"`
}

func (d DayStatus) Get(t TimeOfDay) Status {
	if !t.Valid() {
		return StatusPending
	}
	return d.Slots[t]
}

func (d *DayStatus) Set(t TimeOfDay, s Status) {
	if t.Valid() && s.Valid() {
		d.Slots[t] = s
	}
}

// IsZero reports whether every slot is still pending, meaning the day
// carries no information and need not be stored.
func (d DayStatus) IsZero() bool {
	return d == DayStatus{}
}

// PackDay encodes a day into the canonical packed integer: two bits per
// slot, morning in bits 0-1, afternoon 2-3, evening 4-5.
func PackDay(d DayStatus) uint8 {
	var v uint8
	for i, s := range d.Slots {
		v |= uint8(s&0x3) << (2 * i)
	}
	return v
}

// UnpackDay is the exact inverse of PackDay. Bits above the three slot
// fields are ignored.
func UnpackDay(v uint8) DayStatus {
	var d DayStatus
	for i := range d.Slots {
		d.Slots[i] = Status((v >> (2 * i)) & 0x3)
	}
	return d
}

// StatusLog is the in-memory completion log: habit id -> date -> day.
// Analytics read it; only the tracking surface writes it.
type StatusLog map[string]map[string]DayStatus

func (l StatusLog) Day(habitID, date string) DayStatus {
	return l[habitID][date]
}

func (l StatusLog) Status(habitID, date string, t TimeOfDay) Status {
	return l[habitID][date].Get(t)
}

func (l StatusLog) SetDay(habitID, date string, d DayStatus) {
	days, ok := l[habitID]
	if !ok {
		days = make(map[string]DayStatus)
		l[habitID] = days
	}
	if d.IsZero() {
		delete(days, date)
		return
	}
	days[date] = d
}

func (l StatusLog) SetStatus(habitID, date string, t TimeOfDay, s Status) {
	d := l.Day(habitID, date)
	d.Set(t, s)
	l.SetDay(habitID, date, d)
}

// EntryKey builds the habitID_YYYY-MM-DD key used inside shards.
func EntryKey(habitID, date string) string {
	return habitID + "_" + date
}

// SplitEntryKey is the inverse of EntryKey. The date is always the last
// underscore-separated component so habit ids containing underscores
// still round-trip.
func SplitEntryKey(key string) (habitID, date string, err error) {
	i := strings.LastIndex(key, "_")
	if i <= 0 {
		return "", "", ErrInvalidEntryKey
	}
	habitID, date = key[:i], key[i+1:]
	if !IsValidDate(date) {
		return "", "", ErrInvalidEntryKey
	}
	return habitID, date, nil
}

// MonthOf returns the YYYY-MM prefix of an ISO date.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// ShardKeyFor builds the transport key for a habit-month group.
func ShardKeyFor(month string) string {
	return "logs:" + month
}

// MonthFromShardKey extracts YYYY-MM from a logs:YYYY-MM key.
func MonthFromShardKey(key string) (string, error) {
	month, ok := strings.CutPrefix(key, "logs:")
	if !ok || len(month) != 7 || !IsValidDate(month+"-01") {
		return "", ErrInvalidShardKey
	}
	return month, nil
}

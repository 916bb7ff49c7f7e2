package domain

import (
	"encoding/binary"
	"math/big"
	"sort"
	"strconv"
)

// Shard is the transport form of one month of status data: an ordered
// list of (habitID_YYYY-MM-DD, packed value as decimal string) pairs
// under a logs:YYYY-MM key. Export, cloud sync and device-to-device
// merge all exchange this exact shape, so packing and unpacking must
// round-trip byte for byte.
type Shard struct {
	Key     string       `json:"key"`
	Entries []ShardEntry `json:"entries"`
}

type ShardEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewShardEntry(habitID, date string, d DayStatus) ShardEntry {
	return ShardEntry{
		Key:   EntryKey(habitID, date),
		Value: strconv.FormatUint(uint64(PackDay(d)), 10),
	}
}

// Decode splits the entry back into its habit, date and per-slot codes.
func (e ShardEntry) Decode() (habitID, date string, d DayStatus, err error) {
	habitID, date, err = SplitEntryKey(e.Key)
	if err != nil {
		return "", "", DayStatus{}, err
	}
	d, err = DecodeShardValue(e.Value)
	if err != nil {
		return "", "", DayStatus{}, err
	}
	return habitID, date, d, nil
}

// DecodeShardValue parses the decimal-string form of a packed day.
func DecodeShardValue(s string) (DayStatus, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v > 0x3F {
		return DayStatus{}, ErrInvalidEntryValue
	}
	return UnpackDay(uint8(v)), nil
}

// DecodeBinaryValue parses the fixed-width binary transport form of a
// packed day: an 8-byte big-endian unsigned integer.
func DecodeBinaryValue(buf []byte) (DayStatus, error) {
	if len(buf) != 8 {
		return DayStatus{}, ErrInvalidEntryValue
	}
	v := binary.BigEndian.Uint64(buf)
	if v > 0x3F {
		return DayStatus{}, ErrInvalidEntryValue
	}
	return UnpackDay(uint8(v)), nil
}

// BuildShard packs one month of a user's status log into its transport
// form. Entries are sorted by key so the output is deterministic.
func BuildShard(month string, log StatusLog) Shard {
	shard := Shard{Key: ShardKeyFor(month)}

	for habitID, days := range log {
		for date, d := range days {
			if MonthOf(date) != month || d.IsZero() {
				continue
			}
			shard.Entries = append(shard.Entries, NewShardEntry(habitID, date, d))
		}
	}

	sort.Slice(shard.Entries, func(i, j int) bool {
		return shard.Entries[i].Key < shard.Entries[j].Key
	})

	return shard
}

// ApplyShard unpacks a shard into the log, overwriting any existing day
// entries it names. Entries outside the shard's month are rejected.
func ApplyShard(shard Shard, log StatusLog) error {
	month, err := MonthFromShardKey(shard.Key)
	if err != nil {
		return err
	}

	for _, e := range shard.Entries {
		habitID, date, d, err := e.Decode()
		if err != nil {
			return err
		}
		if MonthOf(date) != month {
			return ErrInvalidEntryKey
		}
		log.SetDay(habitID, date, d)
	}

	return nil
}

// PackMonth aggregates one habit-month into a single wide integer for
// bulk transfer: day N of the month occupies bits 6(N-1) to 6N-1, each
// a packed day value. The per-day keyed form stays the system of
// record; this is a derived view only.
func PackMonth(days map[int]DayStatus) *big.Int {
	v := new(big.Int)
	for day, d := range days {
		if day < 1 || day > 31 {
			continue
		}
		field := new(big.Int).SetUint64(uint64(PackDay(d)))
		field.Lsh(field, uint(6*(day-1)))
		v.Or(v, field)
	}
	return v
}

// UnpackMonth is the inverse of PackMonth. Days whose field is zero are
// omitted, matching the sparse per-day representation.
func UnpackMonth(v *big.Int) map[int]DayStatus {
	days := make(map[int]DayStatus)
	mask := big.NewInt(0x3F)

	for day := 1; day <= 31; day++ {
		field := new(big.Int).Rsh(v, uint(6*(day-1)))
		field.And(field, mask)
		if field.Sign() == 0 {
			continue
		}
		days[day] = UnpackDay(uint8(field.Uint64()))
	}

	return days
}

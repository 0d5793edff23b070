package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dealgrid/dealgrid/internal/errs"
)

// TimeConvertible is implemented by values that can convert themselves to
// a time.Time. The Firestore SDK timestamp is the canonical example.
type TimeConvertible interface {
	Time() time.Time
}

// ParseTimestamp decodes one of the supported wire shapes for a date
// field, tried in a fixed order: a native or convertible time value, an
// ISO 8601 string, Unix seconds as a number, and an object carrying a
// seconds field. Anything else fails with errs.ErrInvalidShape so bad
// data is reported instead of silently zeroed.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("timestamp: %w: nil time", errs.ErrInvalidShape)
		}
		return *t, nil
	case FlexTime:
		return t.Time, nil
	case TimeConvertible:
		return t.Time(), nil
	case string:
		return parseTimeString(t)
	case json.Number:
		if sec, err := t.Int64(); err == nil {
			return time.Unix(sec, 0), nil
		}
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp: %w: number %q", errs.ErrInvalidShape, t.String())
		}
		return timeFromFloat(f), nil
	case float64:
		return timeFromFloat(t), nil
	case int:
		return time.Unix(int64(t), 0), nil
	case int64:
		return time.Unix(t, 0), nil
	case map[string]any:
		return timeFromSecondsObject(t)
	default:
		return time.Time{}, fmt.Errorf("timestamp: %w: %T", errs.ErrInvalidShape, v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("timestamp: %w: string %q", errs.ErrInvalidShape, s)
}

func timeFromFloat(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// timeFromSecondsObject handles {seconds, nanos} objects, including the
// underscore-prefixed spelling Firestore exports use.
func timeFromSecondsObject(m map[string]any) (time.Time, error) {
	secVal, ok := m["seconds"]
	if !ok {
		secVal, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp: %w: object without seconds", errs.ErrInvalidShape)
	}
	sec, err := toInt64(secVal)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w: seconds %v", errs.ErrInvalidShape, secVal)
	}
	var nsec int64
	if nv, ok := m["nanos"]; ok {
		nsec, _ = toInt64(nv)
	} else if nv, ok := m["_nanoseconds"]; ok {
		nsec, _ = toInt64(nv)
	}
	return time.Unix(sec, nsec), nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// FlexTime is a time.Time that accepts any ParseTimestamp shape when
// unmarshaling and always marshals as an RFC 3339 UTC string. A zero
// value marshals as null, and a null field stays zero.
type FlexTime struct {
	time.Time
}

// NewFlexTime wraps a time.Time.
func NewFlexTime(t time.Time) FlexTime { return FlexTime{Time: t} }

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(v)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return nullLiteral, nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

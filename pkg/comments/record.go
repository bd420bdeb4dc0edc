package comments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one observed comment. Username is the dedup key.
type Record struct {
	Username  string    `json:"username"`
	Comment   string    `json:"comment"`
	Timestamp Timestamp `json:"timestamp"`
	Likes     int       `json:"likes"`
	Verified  bool      `json:"verified"`
}

var (
	// ErrMissingUsername is returned when a stored record has no username
	ErrMissingUsername = errors.New("record has no username")
	// ErrMissingComment is returned when a stored record has no comment field
	ErrMissingComment = errors.New("record has no comment")
)

// UnmarshalJSON decodes a stored record and substitutes defaults for the
// optional fields. Username and comment must be present.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username  *string         `json:"username"`
		Comment   *string         `json:"comment"`
		Timestamp Timestamp       `json:"timestamp"`
		Likes     json.RawMessage `json:"likes"`
		Verified  *bool           `json:"verified"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Username == nil || *raw.Username == "" {
		return ErrMissingUsername
	}
	if raw.Comment == nil {
		return fmt.Errorf("%w: %s", ErrMissingComment, *raw.Username)
	}

	likes, err := ParseLikes(raw.Likes)
	if err != nil {
		return fmt.Errorf("record %s: %w", *raw.Username, err)
	}

	*r = Record{
		Username:  *raw.Username,
		Comment:   *raw.Comment,
		Timestamp: raw.Timestamp,
		Likes:     likes,
	}
	if raw.Verified != nil {
		r.Verified = *raw.Verified
	}
	return nil
}

// ParseLikes decodes a like count that may be absent, null, a JSON number or
// a numeric string. Absent values are zero.
func ParseLikes(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid likes value %s: %w", raw, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid likes value %s", raw)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid likes value %s", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative likes value %s", raw)
	}
	if n > maxLikes {
		return 0, fmt.Errorf("likes value %s out of range", raw)
	}
	return int(n), nil
}

// maxLikes keeps int(n) exact on every platform
const maxLikes = float64(math.MaxInt32)

type timestampKind uint8

const (
	timestampAbsent timestampKind = iota
	timestampText
	timestampEpoch
)

// Timestamp is the optional observation time of a comment. Producers report
// it either as text or as integer epoch seconds; the original form is kept so
// that the stored file does not change shape between passes.
type Timestamp struct {
	kind  timestampKind
	text  string
	epoch int64
}

// TextTimestamp wraps a textual timestamp. An empty string is absent.
func TextTimestamp(s string) Timestamp {
	if s == "" {
		return Timestamp{}
	}
	return Timestamp{kind: timestampText, text: s}
}

// EpochTimestamp wraps integer epoch seconds.
func EpochTimestamp(sec int64) Timestamp {
	return Timestamp{kind: timestampEpoch, epoch: sec}
}

// IsZero reports whether no timestamp was observed.
func (t Timestamp) IsZero() bool { return t.kind == timestampAbsent }

// Epoch returns the epoch seconds when the timestamp is numeric.
func (t Timestamp) Epoch() (int64, bool) {
	return t.epoch, t.kind == timestampEpoch
}

// Text returns the textual form when the timestamp is a string.
func (t Timestamp) Text() (string, bool) {
	return t.text, t.kind == timestampText
}

// Equal reports whether both timestamps hold the same value in the same form.
func (t Timestamp) Equal(o Timestamp) bool {
	return t == o
}

func (t Timestamp) String() string {
	switch t.kind {
	case timestampText:
		return t.text
	case timestampEpoch:
		return strconv.FormatInt(t.epoch, 10)
	default:
		return ""
	}
}

// MarshalJSON writes absent timestamps as "", text as a string and epochs as
// a number.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case timestampEpoch:
		return []byte(strconv.FormatInt(t.epoch, 10)), nil
	case timestampText:
		return json.Marshal(t.text)
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON accepts null, a string or a number.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		*t = TextTimestamp(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	if sec, err := n.Int64(); err == nil {
		*t = EpochTimestamp(sec)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("timestamp %s out of range", data)
	}
	*t = EpochTimestamp(int64(f))
	return nil
}

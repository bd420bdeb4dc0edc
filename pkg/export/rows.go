package export

import (
	"strconv"
	"time"

	"igcomments/pkg/comments"
)

// TimeLayout is the layout every recognised timestamp is written in
const TimeLayout = "2006-01-02 15:04:05"

// Header is the first row of every export
var Header = []string{"Username", "Comment", "Timestamp", "Likes", "Verified"}

// inputLayouts are the textual timestamp forms that get normalized
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	TimeLayout,
	"2006-01-02",
}

// Row is one exported comment
type Row struct {
	Username  string
	Comment   string
	Timestamp string
	Likes     int
	Verified  bool
}

// Strings returns the row as text cells
func (r Row) Strings() []string {
	return []string{r.Username, r.Comment, r.Timestamp, strconv.Itoa(r.Likes), strconv.FormatBool(r.Verified)}
}

// Values returns the row as typed cells, numbers and booleans kept as such
func (r Row) Values() []interface{} {
	return []interface{}{r.Username, r.Comment, r.Timestamp, r.Likes, r.Verified}
}

// Rows converts records to rows in collection order
func Rows(records []comments.Record, loc *time.Location) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Username:  r.Username,
			Comment:   r.Comment,
			Timestamp: FormatTimestamp(r.Timestamp, loc),
			Likes:     r.Likes,
			Verified:  r.Verified,
		})
	}
	return rows
}

// FormatTimestamp renders a timestamp in loc. Epoch seconds, digit strings
// and the layouts in inputLayouts become TimeLayout; any other text is
// returned unchanged and an absent timestamp is "".
func FormatTimestamp(ts comments.Timestamp, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	if sec, ok := ts.Epoch(); ok {
		return time.Unix(sec, 0).In(loc).Format(TimeLayout)
	}

	text, ok := ts.Text()
	if !ok {
		return ""
	}

	if isDigits(text) {
		if sec, err := strconv.ParseInt(text, 10, 64); err == nil {
			return time.Unix(sec, 0).In(loc).Format(TimeLayout)
		}
	}

	for _, layout := range inputLayouts {
		// Zone-less layouts are read as wall time in loc
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.In(loc).Format(TimeLayout)
		}
	}
	return text
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

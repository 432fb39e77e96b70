// Package sortview derives sorted, display-ready views of the history log.
package sortview

import (
	"slices"

	"github.com/dj-oyu/vision-dash/pkg/types"
)

// Key selects the column a view is ordered by.
type Key string

const (
	KeyIndex         Key = "index"
	KeySetNum        Key = "set_num"
	KeyNumObj        Key = "num_obj"
	KeyNumDifference Key = "num_difference"
)

// Dir is the sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

const jpegDataPrefix = "data:image/jpeg;base64,"

// Row is a history record prepared for display.
type Row struct {
	types.HistoryRecord
	Index    int    `json:"index"`     // 1 = oldest
	ImageSrc string `json:"image_src"` // data URL, empty without an image
}

// ParseKey resolves a column name. "age-index" is accepted for KeyIndex.
func ParseKey(s string) (Key, bool) {
	switch Key(s) {
	case KeyIndex, "age-index":
		return KeyIndex, true
	case KeySetNum, KeyNumObj, KeyNumDifference:
		return Key(s), true
	}
	return "", false
}

// ParseDir resolves a direction name.
func ParseDir(s string) (Dir, bool) {
	switch Dir(s) {
	case Asc, Desc:
		return Dir(s), true
	}
	return "", false
}

// ImageSource turns a bare base64 JPEG into a data URL.
func ImageSource(b64 string) string {
	if b64 == "" {
		return ""
	}
	return jpegDataPrefix + b64
}

// Rows builds display rows for newest-first records, keeping their order.
func Rows(records []types.HistoryRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			HistoryRecord: r,
			Index:         len(records) - i,
			ImageSrc:      ImageSource(r.Img),
		}
	}
	return rows
}

// Project returns rows for records ordered by key in dir. The input is not
// modified. Unknown keys leave rows in log order. Rows with equal keys have
// no defined relative order.
func Project(records []types.HistoryRecord, key Key, dir Dir) []Row {
	rows := Rows(records)

	value, ok := keyFunc(key)
	if !ok {
		return rows
	}

	sign := -1
	if dir == Asc {
		sign = 1
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		av, bv := value(a), value(b)
		switch {
		case av < bv:
			return -sign
		case av > bv:
			return sign
		}
		return 0
	})
	return rows
}

func keyFunc(key Key) (func(Row) int, bool) {
	switch key {
	case KeyIndex:
		return func(r Row) int { return r.Index }, true
	case KeySetNum:
		return func(r Row) int { return r.SetNum }, true
	case KeyNumObj:
		return func(r Row) int { return r.NumObj }, true
	case KeyNumDifference:
		return func(r Row) int { return r.NumDifference }, true
	}
	return nil, false
}

// State is the active sort column and direction.
type State struct {
	Key Key `json:"key"`
	Dir Dir `json:"dir"`
}

// DefaultState orders newest first.
func DefaultState() State {
	return State{Key: KeyIndex, Dir: Desc}
}

// Toggle returns the state after selecting key: the same key flips the
// direction, a different key starts descending.
func (s State) Toggle(key Key) State {
	if key == s.Key {
		if s.Dir == Asc {
			return State{Key: key, Dir: Desc}
		}
		return State{Key: key, Dir: Asc}
	}
	return State{Key: key, Dir: Desc}
}

package sortview

import (
	"testing"

	"github.com/dj-oyu/vision-dash/pkg/types"
)

// records builds a newest-first slice with the given gaps, oldest last.
func records(diffs ...int) []types.HistoryRecord {
	out := make([]types.HistoryRecord, len(diffs))
	for i, d := range diffs {
		out[i] = types.HistoryRecord{
			Prediction: types.Prediction{SetNum: 10, NumObj: 10 + d, NumDifference: d, Img: "aGVsbG8="},
			ID:         string(rune('a' + i)),
		}
	}
	return out
}

func diffsOf(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.NumDifference
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProjectNumDifferenceAscending(t *testing.T) {
	rows := Project(records(5, -3, 0), KeyNumDifference, Asc)
	if got := diffsOf(rows); !equalInts(got, []int{-3, 0, 5}) {
		t.Fatalf("order = %v, want [-3 0 5]", got)
	}
}

func TestProjectDescending(t *testing.T) {
	rows := Project(records(5, -3, 0), KeyNumObj, Desc)
	if got := diffsOf(rows); !equalInts(got, []int{5, 0, -3}) {
		t.Fatalf("order = %v, want [5 0 -3]", got)
	}
}

func TestProjectIsPermutation(t *testing.T) {
	in := records(3, 1, 1, -2, 7, 0, 3)
	keys := []Key{KeyIndex, KeySetNum, KeyNumObj, KeyNumDifference, "bogus"}
	for _, key := range keys {
		for _, dir := range []Dir{Asc, Desc} {
			rows := Project(in, key, dir)
			if len(rows) != len(in) {
				t.Fatalf("%s/%s: len = %d, want %d", key, dir, len(rows), len(in))
			}
			seen := make(map[string]int)
			for _, r := range rows {
				seen[r.ID]++
			}
			for _, r := range in {
				if seen[r.ID] != 1 {
					t.Fatalf("%s/%s: record %q seen %d times", key, dir, r.ID, seen[r.ID])
				}
			}
		}
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	in := records(5, -3, 0)
	Project(in, KeyNumDifference, Asc)
	if in[0].NumDifference != 5 || in[1].NumDifference != -3 || in[2].NumDifference != 0 {
		t.Fatalf("input reordered: %+v", in)
	}
}

func TestProjectUnknownKeyPassesThrough(t *testing.T) {
	rows := Project(records(5, -3, 0), "colour", Asc)
	if got := diffsOf(rows); !equalInts(got, []int{5, -3, 0}) {
		t.Fatalf("order = %v, want log order", got)
	}
}

func TestRowsIndexAndImage(t *testing.T) {
	in := records(1, 2, 3)
	in[2].Img = ""
	rows := Rows(in)

	for i, want := range []int{3, 2, 1} {
		if rows[i].Index != want {
			t.Errorf("rows[%d].Index = %d, want %d", i, rows[i].Index, want)
		}
	}
	if rows[0].ImageSrc != "data:image/jpeg;base64,aGVsbG8=" {
		t.Errorf("ImageSrc = %q", rows[0].ImageSrc)
	}
	if rows[2].ImageSrc != "" {
		t.Errorf("ImageSrc without image = %q, want empty", rows[2].ImageSrc)
	}
}

func TestProjectByIndex(t *testing.T) {
	rows := Project(records(1, 2, 3), KeyIndex, Asc)
	for i, r := range rows {
		if r.Index != i+1 {
			t.Fatalf("rows[%d].Index = %d, want %d", i, r.Index, i+1)
		}
	}
}

func TestToggle(t *testing.T) {
	s := DefaultState()
	if s != (State{KeyIndex, Desc}) {
		t.Fatalf("DefaultState() = %+v", s)
	}

	once := s.Toggle(KeyIndex)
	if once.Dir != Asc {
		t.Fatalf("first toggle dir = %s, want asc", once.Dir)
	}
	if twice := once.Toggle(KeyIndex); twice != s {
		t.Fatalf("double toggle = %+v, want %+v", twice, s)
	}

	for _, from := range []State{{KeyIndex, Asc}, {KeyIndex, Desc}} {
		if got := from.Toggle(KeyNumObj); got != (State{KeyNumObj, Desc}) {
			t.Fatalf("%+v.Toggle(num_obj) = %+v, want num_obj/desc", from, got)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, ok := ParseKey("age-index"); !ok || k != KeyIndex {
		t.Fatalf("ParseKey(age-index) = %q, %v", k, ok)
	}
	if k, ok := ParseKey("num_obj"); !ok || k != KeyNumObj {
		t.Fatalf("ParseKey(num_obj) = %q, %v", k, ok)
	}
	if _, ok := ParseKey("colour"); ok {
		t.Fatal("ParseKey(colour) accepted")
	}
	if _, ok := ParseDir("up"); ok {
		t.Fatal("ParseDir(up) accepted")
	}
}

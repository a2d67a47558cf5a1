package utils

import (
	"reflect"
	"testing"
)

// TestParseUintList_Valid skips blanks and drops duplicates in order.
func TestParseUintList_Valid(t *testing.T) {
	got, err := ParseUintList([]string{"2", " 5 ", "", "9", "2"})
	if err != nil {
		t.Fatalf("ParseUintList: %v", err)
	}
	if want := []uint{2, 5, 9}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestParseUintList_Invalid rejects non-numeric and zero ids.
func TestParseUintList_Invalid(t *testing.T) {
	for _, in := range [][]string{{"abc"}, {"1", "-2"}, {"0"}, {"1.5"}} {
		if _, err := ParseUintList(in); err == nil {
			t.Errorf("ParseUintList(%v) expected error", in)
		}
	}
}

// TestParseUintList_Empty returns an empty selection.
func TestParseUintList_Empty(t *testing.T) {
	got, err := ParseUintList(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

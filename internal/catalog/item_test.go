package catalog

import "testing"

func TestNormalizeListNewlineBlock(t *testing.T) {
	got := NormalizeList("flour\noat milk\n")
	want := []string{"flour", "oat milk"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNormalizeListJSONArray(t *testing.T) {
	got := NormalizeList(`["flour", " oat milk ", ""]`)
	want := []string{"flour", "oat milk"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNormalizeListEmpty(t *testing.T) {
	if got := NormalizeList(""); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
	if got := NormalizeList("  \n \n"); len(got) != 0 {
		t.Errorf("expected no entries from blank lines, got %v", got)
	}
}

func TestNormalizeListBracketOpeningLineFallsBackToLines(t *testing.T) {
	// A newline block that happens to start with "[" is not JSON.
	got := NormalizeList("[optional] chives\nsalt")
	want := []string{"[optional] chives", "salt"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEncodeListRoundTripsThroughNormalize(t *testing.T) {
	encoded := EncodeList([]string{" flour ", "", "oat milk"})
	got := NormalizeList(encoded)
	want := []string{"flour", "oat milk"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

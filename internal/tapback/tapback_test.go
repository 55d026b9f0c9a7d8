package tapback

import "testing"

func TestIsReactionTotality(t *testing.T) {
	for code := int64(2000); code <= 2005; code++ {
		if !IsReaction(code) {
			t.Errorf("IsReaction(%d) = false, want true", code)
		}
	}
	for code := int64(3000); code <= 3005; code++ {
		if !IsReaction(code) {
			t.Errorf("IsReaction(%d) = false, want true", code)
		}
	}
	for _, code := range []int64{0, 1, -1, 1999, 2006, 2999, 3006, 1000, 4000} {
		if IsReaction(code) {
			t.Errorf("IsReaction(%d) = true, want false", code)
		}
	}
}

func TestKindOfMatchesAcrossRanges(t *testing.T) {
	for code := int64(3000); code <= 3005; code++ {
		removeKind, ok := KindOf(code)
		if !ok {
			t.Fatalf("KindOf(%d) not ok", code)
		}
		addKind, ok := KindOf(code - 1000)
		if !ok {
			t.Fatalf("KindOf(%d) not ok", code-1000)
		}
		if removeKind != addKind {
			t.Errorf("KindOf(%d) = %q, KindOf(%d) = %q, want equal", code, removeKind, code-1000, addKind)
		}
	}
}

func TestKindOfTable(t *testing.T) {
	want := map[int64]Kind{
		2000: Love, 2001: Like, 2002: Dislike,
		2003: Laugh, 2004: Emphasis, 2005: Question,
	}
	for code, kind := range want {
		got, ok := KindOf(code)
		if !ok || got != kind {
			t.Errorf("KindOf(%d) = %q, %v, want %q, true", code, got, ok, kind)
		}
	}
	if _, ok := KindOf(2006); ok {
		t.Error("KindOf(2006) ok = true, want false")
	}
}

func TestIsRemove(t *testing.T) {
	if IsRemove(2000) {
		t.Error("IsRemove(2000) = true, want false")
	}
	if !IsRemove(3000) {
		t.Error("IsRemove(3000) = false, want true")
	}
}

func TestTargetGUID(t *testing.T) {
	tests := []struct {
		assoc string
		want  string
	}{
		{"p:0/ABCD-1234", "ABCD-1234"},
		{"p:12/ABCD-1234", "ABCD-1234"},
		{"bp:ABCD-1234", "ABCD-1234"},
		{"ABCD-1234", "ABCD-1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TargetGUID(tt.assoc); got != tt.want {
			t.Errorf("TargetGUID(%q) = %q, want %q", tt.assoc, got, tt.want)
		}
	}
}

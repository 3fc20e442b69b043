package partition

import (
	"strconv"
	"testing"
)

func TestFor_Determinism(t *testing.T) {
	id := For("S001")
	for i := 0; i < 100; i++ {
		if got := For("S001"); got != id {
			t.Fatalf("For(\"S001\") = %d on iteration %d, want %d", got, i, id)
		}
	}
}

func TestFor_Range(t *testing.T) {
	inputs := []string{"", "a", "S001", "S002", "a-very-long-book-identifier-that-should-still-hash-correctly"}
	for _, s := range inputs {
		p := For(s)
		if p < 0 || p >= Count {
			t.Errorf("For(%q) = %d, want [0, %d)", s, p, Count)
		}
	}
}

func TestFor_Distribution(t *testing.T) {
	// 1000 keys over 256 shards should land on well over 100 distinct shards.
	seen := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		seen[For("book-"+strconv.Itoa(i))] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("only %d distinct shards from 1000 inputs, want >= 100", len(seen))
	}
}

package fracindex

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
)

// verifyBetween checks the strict ordering contract of a generated key
// against its (possibly absent) neighbors.
func verifyBetween(t *testing.T, after, before, key string) {
	t.Helper()
	if err := Validate(key); err != nil {
		t.Fatalf("generated key %q is not valid: %v", key, err)
	}
	if after != "" && Compare(after, key) >= 0 {
		t.Errorf("expected %q < %q", after, key)
	}
	if before != "" && Compare(key, before) >= 0 {
		t.Errorf("expected %q < %q", key, before)
	}
}

func TestKeyBetweenNoNeighbors(t *testing.T) {
	key, err := KeyBetween("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != StartKey {
		t.Errorf("expected start key %q, got %q", StartKey, key)
	}

	// Deterministic: the empty collection always starts at the same key.
	again, err := KeyBetween("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != key {
		t.Errorf("expected a fixed start key, got %q then %q", key, again)
	}
}

func TestKeyBetweenAfterOnly(t *testing.T) {
	key, err := KeyBetween("a0", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "b0" {
		t.Errorf("expected %q after %q, got %q", "b0", "a0", key)
	}

	// Appending at the end must work from any key, including ones already
	// at the top of the alphabet.
	for _, after := range []string{"1", "9z", "a0", "mm", "z", "z5", "zz", "zzz"} {
		key, err := KeyBetween(after, "")
		if err != nil {
			t.Fatalf("KeyBetween(%q, none): %v", after, err)
		}
		verifyBetween(t, after, "", key)
	}
}

func TestKeyBetweenBeforeOnly(t *testing.T) {
	key, err := KeyBetween("", "a0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "90" {
		t.Errorf("expected %q before %q, got %q", "90", "a0", key)
	}

	// Inserting at the head must keep working as keys approach the zero
	// boundary: stepping down from "10" cannot produce the reserved "00",
	// and keys already led by '0' grow a prefix instead.
	for _, before := range []string{"a0", "90", "10", "010", "0010", "05", "1", "01", "z", "0z"} {
		key, err := KeyBetween("", before)
		if err != nil {
			t.Fatalf("KeyBetween(none, %q): %v", before, err)
		}
		verifyBetween(t, "", before, key)
	}
}

func TestKeyBetweenTwoSided(t *testing.T) {
	cases := []struct {
		after, before string
		want          string
	}{
		// Adjacent leading characters borrow precision from the suffix.
		{"a0", "b0", "a1"},
		// A wide gap takes the direct midpoint.
		{"a1", "a7", "a4"},
		{"05", "0a", "07"},
		// Adjacent with an exhausted suffix grows the key.
		{"a1", "a2", "a1i"},
		// A strict prefix steps down inside the remainder.
		{"a0", "a0i", "a0h"},
		{"a0", "a1", "a0i"},
		// A zero-run extension admits only the shorter zero runs.
		{"a0", "a000", "a00"},
	}
	for _, tc := range cases {
		got, err := KeyBetween(tc.after, tc.before)
		if err != nil {
			t.Fatalf("KeyBetween(%q, %q): %v", tc.after, tc.before, err)
		}
		if got != tc.want {
			t.Errorf("KeyBetween(%q, %q) = %q, want %q", tc.after, tc.before, got, tc.want)
		}
		verifyBetween(t, tc.after, tc.before, got)
	}
}

func TestKeyBetweenRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name          string
		after, before string
	}{
		{"equal keys", "a0", "a0"},
		{"reversed keys", "b0", "a0"},
		{"before sorts inside after", "a00", "a0"},
		{"single zero extension has no room", "a0", "a00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := KeyBetween(tc.after, tc.before)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("KeyBetween(%q, %q) error = %v, want ErrInvalidRange", tc.after, tc.before, err)
			}
		})
	}
}

func TestKeyBetweenRejectsMalformedKeys(t *testing.T) {
	bad := []string{"A0", "a_0", "a 0", "a0!", "é", "0", "00", "000"}
	for _, key := range bad {
		if _, err := KeyBetween(key, ""); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("KeyBetween(%q, none) error = %v, want ErrMalformedKey", key, err)
		}
		if _, err := KeyBetween("", key); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("KeyBetween(none, %q) error = %v, want ErrMalformedKey", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	good := []string{"a0", "0a", "z", "1", "90", "00z", "a0h", "zzzz"}
	for _, key := range good {
		if err := Validate(key); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", key, err)
		}
	}
	bad := []string{"", "0", "000", "A0", "a/b", "a0\n"}
	for _, key := range bad {
		if err := Validate(key); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("Validate(%q) = %v, want ErrMalformedKey", key, err)
		}
	}
}

func TestKeysBetween(t *testing.T) {
	t.Run("batch is strictly increasing and bounded", func(t *testing.T) {
		keys, err := KeysBetween(3, "a0", "b0")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"a1", "a2", "a3"}
		if len(keys) != len(want) {
			t.Fatalf("expected %d keys, got %d", len(want), len(keys))
		}
		for i, key := range keys {
			if key != want[i] {
				t.Errorf("keys[%d] = %q, want %q", i, key, want[i])
			}
		}
		prev := "a0"
		for _, key := range keys {
			verifyBetween(t, prev, "b0", key)
			prev = key
		}
	})

	t.Run("matches chained single insertions", func(t *testing.T) {
		batch, err := KeysBetween(10, "a0", "a1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		prev := "a0"
		for i, key := range batch {
			single, err := KeyBetween(prev, "a1")
			if err != nil {
				t.Fatalf("chained KeyBetween: %v", err)
			}
			if single != key {
				t.Errorf("batch[%d] = %q, chained insertion gives %q", i, key, single)
			}
			prev = key
		}
	})

	t.Run("zero count", func(t *testing.T) {
		keys, err := KeysBetween(0, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("expected no keys, got %v", keys)
		}
	})

	t.Run("negative count", func(t *testing.T) {
		if _, err := KeysBetween(-1, "", ""); err == nil {
			t.Error("expected error for negative count")
		}
	})

	t.Run("propagates range errors", func(t *testing.T) {
		if _, err := KeysBetween(2, "b0", "a0"); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("error = %v, want ErrInvalidRange", err)
		}
	})
}

func TestCompare(t *testing.T) {
	keys := []string{"05", "90", "a0", "a0h", "a0i", "a1", "az", "b0", "zi"}

	for _, key := range keys {
		if Compare(key, key) != 0 {
			t.Errorf("Compare(%q, %q) != 0", key, key)
		}
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if Compare(keys[i], keys[j]) != -1 {
				t.Errorf("Compare(%q, %q) != -1", keys[i], keys[j])
			}
			if Compare(keys[j], keys[i]) != 1 {
				t.Errorf("Compare(%q, %q) != 1", keys[j], keys[i])
			}
		}
	}

	shuffled := []string{"b0", "05", "az", "a0", "zi", "a0h", "90", "a1", "a0i"}
	sort.Slice(shuffled, func(i, j int) bool { return Compare(shuffled[i], shuffled[j]) < 0 })
	if strings.Join(shuffled, ",") != strings.Join(keys, ",") {
		t.Errorf("sorting by Compare gave %v, want %v", shuffled, keys)
	}
}

// TestRepeatedInsertionDensity drives insertion at a single point far past
// ordinary use: every new key is generated between the original left
// neighbor and the most recent key. Keys trade length for precision, so
// this must never fail and never repeat.
func TestRepeatedInsertionDensity(t *testing.T) {
	const iterations = 1000

	t.Run("descending toward after", func(t *testing.T) {
		seen := make(map[string]bool, iterations)
		upper := "b0"
		for i := 0; i < iterations; i++ {
			key, err := KeyBetween("a0", upper)
			if err != nil {
				t.Fatalf("iteration %d: %v", i, err)
			}
			verifyBetween(t, "a0", upper, key)
			if seen[key] {
				t.Fatalf("iteration %d: duplicate key %q", i, key)
			}
			seen[key] = true
			upper = key
		}
	})

	t.Run("ascending toward before", func(t *testing.T) {
		seen := make(map[string]bool, iterations)
		lower := "a0"
		for i := 0; i < iterations; i++ {
			key, err := KeyBetween(lower, "b0")
			if err != nil {
				t.Fatalf("iteration %d: %v", i, err)
			}
			verifyBetween(t, lower, "b0", key)
			if seen[key] {
				t.Fatalf("iteration %d: duplicate key %q", i, key)
			}
			seen[key] = true
			lower = key
		}
	})
}

// TestRandomInsertionOrdering builds a collection through randomized
// insertions at arbitrary slots, the way interleaved drag-and-drop traffic
// would, then verifies every adjacent pair still admits a midpoint.
func TestRandomInsertionOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	first, err := KeyBetween("", "")
	if err != nil {
		t.Fatalf("seed key: %v", err)
	}
	keys := []string{first}

	for i := 0; i < 300; i++ {
		slot := rng.Intn(len(keys) + 1)
		var after, before string
		if slot > 0 {
			after = keys[slot-1]
		}
		if slot < len(keys) {
			before = keys[slot]
		}
		key, err := KeyBetween(after, before)
		if err != nil {
			t.Fatalf("insertion %d at slot %d (%q, %q): %v", i, slot, after, before, err)
		}
		verifyBetween(t, after, before, key)
		keys = append(keys[:slot], append([]string{key}, keys[slot:]...)...)
	}

	if !sort.SliceIsSorted(keys, func(i, j int) bool { return Compare(keys[i], keys[j]) < 0 }) {
		t.Fatal("collection is not sorted after randomized insertions")
	}
	for i := 0; i+1 < len(keys); i++ {
		mid, err := KeyBetween(keys[i], keys[i+1])
		if err != nil {
			t.Fatalf("no midpoint between adjacent keys %q and %q: %v", keys[i], keys[i+1], err)
		}
		verifyBetween(t, keys[i], keys[i+1], mid)
	}
}

// TestFiftyConsecutiveBracketedInserts pins the drag-and-drop scenario of
// dropping fifty items one after another onto the same gap.
func TestFiftyConsecutiveBracketedInserts(t *testing.T) {
	lower, upper := "a0", "b0"

	prev := lower
	for i := 0; i < 50; i++ {
		key, err := KeyBetween(prev, upper)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		verifyBetween(t, prev, upper, key)
		prev = key
	}

	next := upper
	for i := 0; i < 50; i++ {
		key, err := KeyBetween(lower, next)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		verifyBetween(t, lower, next, key)
		next = key
	}
}

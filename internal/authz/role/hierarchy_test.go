package role

import "testing"

func TestAtLeast(t *testing.T) {
	cases := []struct {
		actor    int
		required int
		want     bool
	}{
		{0, 0, true},
		{0, 99, true},
		{2, 3, true},
		{2, 2, true},
		{3, 2, false},
		{99, 0, false},
		{99, 99, true},
	}
	for _, tc := range cases {
		if got := AtLeast(tc.actor, tc.required); got != tc.want {
			t.Fatalf("AtLeast(%d, %d) = %v, want %v", tc.actor, tc.required, got, tc.want)
		}
	}
}

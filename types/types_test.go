package types

import "testing"

func TestActionString(t *testing.T) {
	cases := map[Action]string{
		Hold:        "hold",
		Enter:       "enter",
		AverageDown: "average_down",
		Exit:        "exit",
		Action(42):  "hold",
	}
	for a, want := range cases {
		if got := a.String(); got != want {
			t.Fatalf("Action(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}

package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseGroupID(t *testing.T) {
	cases := map[string]GroupID{
		"12345": 12345,
		" 42 ":  42,
		"":      InvalidGroupID,
		"abc":   InvalidGroupID,
		"12.5":  InvalidGroupID,
		"-7":    -7,
	}
	for in, want := range cases {
		if got := ParseGroupID(in); got != want {
			t.Fatalf("ParseGroupID(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestOutcome_MarshalKeepsRawUserID(t *testing.T) {
	out := []Outcome{
		Promoted(UserIDFromInt(111)),
		Failed(NewUserID(`"abc"`, "abc"), errors.New("The user is invalid or does not exist.")),
	}
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"userId":111,"status":"Promoted"},{"userId":"abc","status":"Failed","error":"The user is invalid or does not exist."}]`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}
}

func TestRemoteError_ErrorIsMessageOnly(t *testing.T) {
	err := &RemoteError{StatusCode: 400, Code: 1, Message: "Group is invalid or does not exist."}
	if err.Error() != "Group is invalid or does not exist." {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestTally_CountsByStatus(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	got := Tally(7, []Outcome{
		Promoted(UserIDFromInt(1)),
		Failed(UserIDFromInt(2), errors.New("x")),
		Promoted(UserIDFromInt(3)),
	}, at)

	want := BatchTally{Group: 7, Counts: PromotionCounts{Promoted: 2, Failed: 1}, At: at}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

package conversation

import (
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestSplitComposite(t *testing.T) {
	testCases := []struct {
		desc       string
		given      string
		wantConv   string
		wantThread string
		wantOk     bool
	}{
		{desc: "regular", given: "CID1_TID1", wantConv: "CID1", wantThread: "TID1", wantOk: true},
		{desc: "splits on first separator", given: "a_b_c", wantConv: "a", wantThread: "b_c", wantOk: true},
		{desc: "no separator", given: "CID1", wantOk: false},
		{desc: "empty", given: "", wantOk: false},
		{desc: "empty conversation part", given: "_TID", wantOk: false},
		{desc: "empty threading part", given: "CID_", wantOk: false},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			conv, thread, ok := SplitComposite(tc.given)
			testboil.FailTestIfDiff(t, ok, tc.wantOk)
			testboil.FailTestIfDiff(t, conv, tc.wantConv)
			testboil.FailTestIfDiff(t, thread, tc.wantThread)
		})
	}
}

func TestState_ObserveAndReset(t *testing.T) {
	var s State
	if s.Observe("malformed") {
		t.Fatal("expected malformed id to be ignored")
	}
	testboil.FailTestIfDiff(t, s.ConversationID(), "")

	if !s.Observe("CID1_TID1") {
		t.Fatal("expected composite id to be observed")
	}
	testboil.FailTestIfDiff(t, s.ConversationID(), "CID1")
	testboil.FailTestIfDiff(t, s.ThreadingID(), "TID1")

	// Malformed ids keep the previous state
	s.Observe("nope")
	testboil.FailTestIfDiff(t, s.ConversationID(), "CID1")

	s.Reset()
	testboil.FailTestIfDiff(t, s.ConversationID(), "")
	testboil.FailTestIfDiff(t, s.ThreadingID(), "")
}

func TestState_Prepare(t *testing.T) {
	var s State
	first := s.Prepare(false)
	if first == "" {
		t.Fatal("expected provisional id to be generated")
	}
	testboil.FailTestIfDiff(t, s.Prepare(false), first)

	s.Observe("CID1_TID1")
	testboil.FailTestIfDiff(t, s.Prepare(false), "CID1")

	fresh := s.Prepare(true)
	if fresh == "CID1" || fresh == first {
		t.Fatalf("expected fresh id, got: %v", fresh)
	}
	testboil.FailTestIfDiff(t, s.ThreadingID(), "")
}

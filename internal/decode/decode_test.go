package decode

import (
	"strings"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/baalimago/metai/internal/models"
)

const (
	inProgressLine = `{"data":{"node":{"bot_response_message":{"id":"CID1_TID1","streaming_state":"IN_PROGRESS","composed_text":{"content":[{"text":"Hel"}]}}}}}`
	doneLine       = `{"data":{"node":{"bot_response_message":{"id":"CID1_TID1","streaming_state":"OVERALL_DONE","fetch_id":"F1","composed_text":{"content":[{"text":"Hello"}]}}}}}`
)

func TestDecodeLine(t *testing.T) {
	ev, ok := DecodeLine(doneLine)
	if !ok {
		t.Fatal("expected line to decode")
	}
	testboil.FailTestIfDiff(t, ev.ID, "CID1_TID1")
	testboil.FailTestIfDiff(t, ev.FetchID, "F1")
	testboil.FailTestIfDiff(t, ev.Text, "Hello")
	testboil.FailTestIfDiff(t, ev.StreamingState, models.StreamingOverallDone)

	for _, bad := range []string{"", "   ", "garbage", "[1,2]", `{"data":{"node":"wrong shape"}}`} {
		if _, ok := DecodeLine(bad); ok {
			t.Fatalf("expected %q to be skipped", bad)
		}
	}
}

func TestLastTerminal_PicksLastDoneAndObservesAll(t *testing.T) {
	otherDone := strings.Replace(doneLine, `"Hello"`, `"Hello again"`, 1)
	body := strings.Join([]string{inProgressLine, "", "not json", doneLine, inProgressLine, otherDone, ""}, "\n")

	var observed []string
	ev, ok := LastTerminal(body, func(e models.ResponseEvent) {
		observed = append(observed, string(e.StreamingState))
	})
	if !ok {
		t.Fatal("expected terminal event")
	}
	testboil.FailTestIfDiff(t, ev.Text, "Hello again")
	testboil.FailTestIfDiff(t, strings.Join(observed, ","), "IN_PROGRESS,OVERALL_DONE,IN_PROGRESS,OVERALL_DONE")
}

func TestLastTerminal_NoneFound(t *testing.T) {
	body := inProgressLine + "\n" + inProgressLine
	if _, ok := LastTerminal(body, nil); ok {
		t.Fatal("expected no terminal event")
	}
	if _, ok := LastTerminal("<html>region blocked</html>", nil); ok {
		t.Fatal("expected no terminal event for html body")
	}
}

func TestIsErrorEnvelope(t *testing.T) {
	testCases := []struct {
		desc    string
		given   string
		want    bool
		wantErr bool
	}{
		{desc: "error envelope", given: `{"errors":[{"message":"blocked"}]}`, want: true},
		{desc: "empty errors", given: `{"errors":[]}`, want: false},
		{desc: "regular line", given: inProgressLine, want: false},
		{desc: "garbage", given: "garbage", wantErr: true},
		{desc: "not an object", given: "[1]", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := IsErrorEnvelope(tc.given)
			testboil.FailTestIfDiff(t, err != nil, tc.wantErr)
			testboil.FailTestIfDiff(t, got, tc.want)
		})
	}
}

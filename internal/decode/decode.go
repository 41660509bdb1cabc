package decode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baalimago/metai/internal/models"
)

// DecodeLine decodes one line of the reply. Lines which aren't valid JSON
// return false, they are skipped rather than treated as errors.
func DecodeLine(line string) (models.ResponseEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.ResponseEvent{}, false
	}
	var l models.Line
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return models.ResponseEvent{}, false
	}
	return models.EventFromLine(l), true
}

// LastTerminal walks a complete reply body and returns the last OVERALL_DONE
// event. observe is called for every decoded event, terminal or not, in order.
func LastTerminal(body string, observe func(models.ResponseEvent)) (models.ResponseEvent, bool) {
	var last models.ResponseEvent
	found := false
	for _, line := range strings.Split(body, "\n") {
		ev, ok := DecodeLine(line)
		if !ok {
			continue
		}
		if observe != nil {
			observe(ev)
		}
		if ev.IsTerminal() {
			last = ev
			found = true
		}
	}
	return last, found
}

type errorEnvelope struct {
	Errors []json.RawMessage `json:"errors"`
}

// IsErrorEnvelope inspects the first line of a streamed reply. It errors if
// the line isn't a JSON object, and returns true if it carries a non-empty
// 'errors' list.
func IsErrorEnvelope(line string) (bool, error) {
	var env errorEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &env); err != nil {
		return false, fmt.Errorf("failed to decode first line: %w", err)
	}
	return len(env.Errors) > 0, nil
}

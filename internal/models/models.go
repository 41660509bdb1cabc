package models

import "strings"

type StreamingState string

const (
	StreamingInProgress  StreamingState = "IN_PROGRESS"
	StreamingOverallDone StreamingState = "OVERALL_DONE"
)

// Line is one JSON line of the send-message response stream.
type Line struct {
	Data LineData `json:"data"`
}

type LineData struct {
	Node Node `json:"node"`
}

type Node struct {
	BotResponseMessage BotResponseMessage `json:"bot_response_message"`
}

type BotResponseMessage struct {
	ID             string         `json:"id"`
	StreamingState StreamingState `json:"streaming_state"`
	FetchID        string         `json:"fetch_id"`
	ComposedText   ComposedText   `json:"composed_text"`
	ImagineCard    *ImagineCard   `json:"imagine_card,omitempty"`
}

type ComposedText struct {
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Text string `json:"text"`
}

type ImagineCard struct {
	Session *ImagineSession `json:"session,omitempty"`
}

type ImagineSession struct {
	MediaSets []MediaSet `json:"media_sets"`
}

type MediaSet struct {
	ImagineMedia []ImagineMedia `json:"imagine_media"`
}

type ImagineMedia struct {
	URI       string `json:"uri"`
	MediaType string `json:"media_type"`
	Prompt    string `json:"prompt"`
}

// ResponseEvent is one decoded unit of a reply. It's never mutated after decoding.
type ResponseEvent struct {
	ID             string
	StreamingState StreamingState
	FetchID        string
	Text           string
	ImagineCard    *ImagineCard
}

// IsTerminal reports if the event marks the end of a turn. Any state other
// than OVERALL_DONE is treated as non-terminal.
func (e ResponseEvent) IsTerminal() bool {
	return e.StreamingState == StreamingOverallDone
}

// EventFromLine projects the wire line into a ResponseEvent. The text is the
// composed text parts joined by newline.
func EventFromLine(l Line) ResponseEvent {
	bot := l.Data.Node.BotResponseMessage
	parts := make([]string, 0, len(bot.ComposedText.Content))
	for _, c := range bot.ComposedText.Content {
		parts = append(parts, c.Text)
	}
	return ResponseEvent{
		ID:             bot.ID,
		StreamingState: bot.StreamingState,
		FetchID:        bot.FetchID,
		Text:           strings.Join(parts, "\n"),
		ImagineCard:    bot.ImagineCard,
	}
}

// Result is what the caller receives for a reply. Sources and Media are
// always non-nil.
type Result struct {
	Message string      `json:"message"`
	Sources []Reference `json:"sources"`
	Media   []MediaItem `json:"media"`
}

const (
	UnknownTitle = "Unknown"
	NoLink       = "No link"
)

type Reference struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type MediaItem struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Prompt string `json:"prompt,omitempty"`
}

package metaai

import (
	"context"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// Legacy is the older call shape of the client: one Prompt method for both
// buffered and streamed replies, plus property style accessors.
//
// Deprecated: use Client.
type Legacy struct {
	client *Client
}

func NewLegacy(ctx context.Context, opts ...Option) (*Legacy, error) {
	ancli.PrintWarn("metaai.Legacy is deprecated, use metaai.Client instead\n")
	c, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Legacy{client: c}, nil
}

// Prompt returns a Result, or an iter.Seq2[Result, error] when stream is set.
// attempts is ignored, retries are handled by the client.
func (l *Legacy) Prompt(ctx context.Context, text string, stream bool, attempts int, newConversation bool) (any, error) {
	if attempts > 0 {
		ancli.PrintWarn("the 'attempts' parameter is deprecated and will be ignored, retry logic is handled internally\n")
	}
	if stream {
		seq, err := l.client.PromptStream(ctx, text, newConversation)
		if err != nil {
			return nil, err
		}
		return seq, nil
	}
	res, err := l.client.Prompt(ctx, text, newConversation)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AccessToken which has been fetched so far, empty if none.
func (l *Legacy) AccessToken() string {
	return l.client.creds.CachedAccessToken()
}

func (l *Legacy) IsAuthed() bool {
	return l.client.IsAuthenticated()
}

func (l *Legacy) ExternalConversationID() string {
	return l.client.ConversationID()
}

// OfflineThreadingID is the threading half of the latest reply id.
func (l *Legacy) OfflineThreadingID() string {
	return l.client.ex.ThreadingID()
}

func (l *Legacy) Cookies() map[string]string {
	return l.client.creds.Cookies()
}

// GetAccessToken fetches the access token if there isn't one already.
func (l *Legacy) GetAccessToken(ctx context.Context) (string, error) {
	return l.client.creds.AccessToken(ctx)
}

func (l *Legacy) GetCookies() map[string]string {
	return l.Cookies()
}

func (l *Legacy) FetchSources(ctx context.Context, fetchID string) []Reference {
	return l.client.FetchSources(ctx, fetchID)
}

// ExtractMedia of one raw reply line.
func (l *Legacy) ExtractMedia(line string) []MediaItem {
	return l.client.ExtractMedia(line)
}

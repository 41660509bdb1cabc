package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/internal/credentials"
	"github.com/baalimago/metai/internal/graphql"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/transport"
)

// Resolver fetches the citations of a completed reply. It's best effort:
// failures end up as an empty list, never as an error.
type Resolver struct {
	creds    credentials.Provider
	session  *transport.Session
	graphURL string
	debug    bool
}

func NewResolver(creds credentials.Provider, session *transport.Session, graphURL string, debug bool) *Resolver {
	return &Resolver{
		creds:    creds,
		session:  session,
		graphURL: graphURL,
		debug:    debug,
	}
}

type rawReference struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type searchPluginResponse struct {
	Data struct {
		Message *struct {
			SearchResults *struct {
				References json.RawMessage `json:"references"`
			} `json:"searchResults"`
		} `json:"message"`
	} `json:"data"`
}

// Fetch the references behind fetchID. Only anonymous sessions which already
// hold an access token are able to query them, any other case returns an
// empty list without network activity.
func (r *Resolver) Fetch(ctx context.Context, fetchID string) []models.Reference {
	ret := make([]models.Reference, 0)
	if fetchID == "" {
		return ret
	}
	token := r.creds.CachedAccessToken()
	if token == "" {
		return ret
	}
	refs, err := r.fetch(ctx, token, fetchID)
	if err != nil {
		ancli.PrintWarn(fmt.Sprintf("failed to fetch sources: %v\n", err))
		return ret
	}
	return refs
}

func (r *Resolver) fetch(ctx context.Context, token, fetchID string) ([]models.Reference, error) {
	form, err := graphql.SearchPluginForm(token, fetchID)
	if err != nil {
		return nil, err
	}
	status, body, err := r.session.PostStatus(ctx, r.graphURL, graphql.SearchPluginHeaders(r.creds.Cookies()), form)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status code: %v", status)
	}
	var res searchPluginResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if r.debug {
		ancli.PrintOK(fmt.Sprintf("search plugin response: %v\n", body))
	}
	return extractReferences(res), nil
}

// extractReferences of data.message.searchResults.references. Any missing or
// misshaped level is treated as no references.
func extractReferences(res searchPluginResponse) []models.Reference {
	ret := make([]models.Reference, 0)
	msg := res.Data.Message
	if msg == nil || msg.SearchResults == nil || len(msg.SearchResults.References) == 0 {
		return ret
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(msg.SearchResults.References, &raw); err != nil {
		return ret
	}
	for _, item := range raw {
		var ref rawReference
		if err := json.Unmarshal(item, &ref); err != nil {
			continue
		}
		if ref.Title == "" {
			ref.Title = models.UnknownTitle
		}
		if ref.Link == "" {
			ref.Link = models.NoLink
		}
		ret = append(ret, models.Reference{Title: ref.Title, Link: ref.Link})
	}
	return ret
}

package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/metai/internal/conversation"
	"github.com/baalimago/metai/internal/credentials"
	"github.com/baalimago/metai/internal/decode"
	"github.com/baalimago/metai/internal/graphql"
	"github.com/baalimago/metai/internal/media"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/retry"
	"github.com/baalimago/metai/internal/sources"
	"github.com/baalimago/metai/internal/transport"
)

var ErrStreamConsumed = errors.New("stream has already been consumed")

type Config struct {
	// APIURL is used by authenticated sessions, GraphURL by anonymous ones.
	APIURL   string
	GraphURL string
	Retry    retry.Controller
	Debug    bool
}

// Exchanger sends messages and decodes the replies while keeping track of
// the conversation. It's meant to be used by one caller at a time.
type Exchanger struct {
	creds    credentials.Provider
	session  *transport.Session
	resolver *sources.Resolver
	retry    retry.Controller
	apiURL   string
	graphURL string
	debug    bool
	state    conversation.State
	nonce    func() string
}

func New(creds credentials.Provider, session *transport.Session, conf Config) *Exchanger {
	return &Exchanger{
		creds:    creds,
		session:  session,
		resolver: sources.NewResolver(creds, session, conf.GraphURL, conf.Debug),
		retry:    conf.Retry,
		apiURL:   conf.APIURL,
		graphURL: conf.GraphURL,
		debug:    conf.Debug,
		nonce:    graphql.OfflineThreadingID,
	}
}

func (e *Exchanger) ConversationID() string {
	return e.state.ConversationID()
}

func (e *Exchanger) ThreadingID() string {
	return e.state.ThreadingID()
}

func (e *Exchanger) StartNewConversation() {
	e.state.Reset()
}

// Resolver used to enrich replies with their references.
func (e *Exchanger) Resolver() *sources.Resolver {
	return e.resolver
}

type outgoing struct {
	session *transport.Session
	target  string
	header  http.Header
	form    url.Values
}

// prepare one attempt. Authenticated attempts get a freshly isolated session
// so the session cookie never ends up in a reused client.
func (e *Exchanger) prepare(ctx context.Context, text string, newConversation bool) (outgoing, error) {
	var auth graphql.AuthFragment
	var abraSess string
	out := outgoing{session: e.session, target: e.graphURL}
	if e.creds.IsAuthenticated() {
		cookies := e.creds.Cookies()
		if cookies[credentials.CookieFbDtsg] == "" {
			return outgoing{}, fmt.Errorf("%w: authenticated session is missing cookie '%v'", models.ErrAuthentication, credentials.CookieFbDtsg)
		}
		auth.FbDtsg = cookies[credentials.CookieFbDtsg]
		abraSess = cookies[credentials.CookieAbraSess]
		out.session = e.session.Isolated()
		out.target = e.apiURL
	} else {
		token, err := e.creds.AccessToken(ctx)
		if err != nil {
			return outgoing{}, fmt.Errorf("failed to get access token: %w", err)
		}
		auth.AccessToken = token
	}

	conversationID := e.state.Prepare(newConversation)
	form, err := graphql.SendMessageForm(auth, text, conversationID, e.nonce())
	if err != nil {
		return outgoing{}, fmt.Errorf("failed to build message: %w", err)
	}
	out.form = form
	out.header = graphql.SendMessageHeaders(abraSess)
	if e.debug {
		ancli.PrintOK(fmt.Sprintf("outgoing variables: %v\n", debug.IndentedJsonFmt(form.Get("variables"))))
	}
	return out, nil
}

func (e *Exchanger) observe(ev models.ResponseEvent) {
	if ev.ID == "" {
		return
	}
	if !e.state.Observe(ev.ID) && e.debug {
		ancli.PrintWarn(fmt.Sprintf("ignoring malformed conversation id: '%v'\n", ev.ID))
	}
}

func (e *Exchanger) enrich(ctx context.Context, ev models.ResponseEvent) models.Result {
	return models.Result{
		Message: ev.Text,
		Sources: e.resolver.Fetch(ctx, ev.FetchID),
		Media:   media.Extract(ev.ImagineCard),
	}
}

// Send text and wait for the complete reply. newConversation only affects the
// first attempt, retries continue whatever conversation it produced.
func (e *Exchanger) Send(ctx context.Context, text string, newConversation bool) (models.Result, error) {
	if text == "" {
		return models.Result{}, models.ErrEmptyMessage
	}
	var result models.Result
	err := e.retry.Do(ctx, func(ctx context.Context, n int) error {
		out, err := e.prepare(ctx, text, newConversation && n == 0)
		if err != nil {
			return err
		}
		body, err := out.session.Post(ctx, out.target, out.header, out.form)
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		ev, ok := decode.LastTerminal(body, e.observe)
		if !ok {
			return fmt.Errorf("%w: no %v event among reply lines", models.ErrDecode, models.StreamingOverallDone)
		}
		result = e.enrich(ctx, ev)
		return nil
	})
	if err != nil {
		return models.Result{}, err
	}
	return result, nil
}

package metaai

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/internal/credentials"
	"github.com/baalimago/metai/internal/decode"
	"github.com/baalimago/metai/internal/exchange"
	"github.com/baalimago/metai/internal/media"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/retry"
	"github.com/baalimago/metai/internal/transport"
	"github.com/baalimago/metai/internal/utils"
)

type (
	Config           = utils.Config
	Result           = models.Result
	Reference        = models.Reference
	MediaItem        = models.MediaItem
	CredentialSource = credentials.Source
	TransportFactory = transport.TransportFactory
)

var (
	ErrRegionBlocked    = models.ErrRegionBlocked
	ErrAuthentication   = models.ErrAuthentication
	ErrRetriesExhausted = models.ErrRetriesExhausted
	ErrEmptyMessage     = models.ErrEmptyMessage
	ErrStreamConsumed   = exchange.ErrStreamConsumed
)

type options struct {
	conf         Config
	confSet      bool
	source       CredentialSource
	newTransport TransportFactory
	sleep        func(context.Context, time.Duration) error
}

// Option configures a Client.
type Option func(*options)

// WithConfig replaces the configuration loaded from the environment. Zero
// fields fall back to the defaults.
func WithConfig(c Config) Option {
	return func(o *options) {
		o.conf = c
		o.confSet = true
	}
}

// WithCredentials sets where the cookies are loaded from. Defaults to the
// META_AI_* environment variables.
func WithCredentials(src CredentialSource) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithCookies is WithCredentials for a fixed set of cookies.
func WithCookies(cookies map[string]string) Option {
	return WithCredentials(credentials.StaticSource(cookies))
}

func WithTransportFactory(f TransportFactory) Option {
	return func(o *options) {
		o.newTransport = f
	}
}

// WithSleep replaces the wait in between retries.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// Client exchanges messages with Meta AI. Calls are serialised, one message
// is in flight at a time.
type Client struct {
	mu      sync.Mutex
	conf    Config
	creds   *credentials.Context
	session *transport.Session
	ex      *exchange.Exchanger
}

// New loads the configuration and credentials. No request is made until the
// first prompt.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := options{
		source:       credentials.EnvSource{},
		newTransport: transport.DefaultTransportFactory,
	}
	for _, opt := range opts {
		opt(&o)
	}
	conf := o.conf.WithDefaults()
	if !o.confSet {
		var err error
		conf, err = utils.LoadConfigFromEnv(utils.DefaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	proxy, err := conf.ProxyURL()
	if err != nil {
		return nil, err
	}

	session := transport.NewSession(proxy, conf.UserAgent,
		transport.WithTransportFactory(o.newTransport),
		transport.WithTimeout(conf.Timeout),
		transport.WithDebug(conf.Debug))
	creds, err := credentials.New(ctx, o.source, session, conf.APIURL,
		credentials.WithTokenDelay(conf.TokenDelay),
		credentials.WithDebug(conf.Debug))
	if err != nil {
		return nil, err
	}
	rc := retry.New(conf.MaxRetries, conf.RetryDelay)
	rc.Sleep = o.sleep
	if conf.Debug {
		ancli.PrintOK(fmt.Sprintf("client setup, authenticated: %v, proxy: %v\n", creds.IsAuthenticated(), proxy))
	}
	return &Client{
		conf:    conf,
		creds:   creds,
		session: session,
		ex: exchange.New(creds, session, exchange.Config{
			APIURL:   conf.APIURL,
			GraphURL: conf.GraphURL,
			Retry:    rc,
			Debug:    conf.Debug,
		}),
	}, nil
}

// Prompt sends text and waits for the complete reply.
func (c *Client) Prompt(ctx context.Context, text string, newConversation bool) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ex.Send(ctx, text, newConversation)
}

// PromptStream sends text and returns the reply as a sequence of partial
// results, each holding the full text received so far. The sequence can be
// ranged over once. Breaking out of the loop closes the connection.
func (c *Client) PromptStream(ctx context.Context, text string, newConversation bool) (iter.Seq2[Result, error], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ex.SendStream(ctx, text, newConversation)
}

func (c *Client) StartNewConversation() {
	c.ex.StartNewConversation()
}

// ConversationID of the ongoing conversation, empty if there is none.
func (c *Client) ConversationID() string {
	return c.ex.ConversationID()
}

func (c *Client) IsAuthenticated() bool {
	return c.creds.IsAuthenticated()
}

// RefreshSession reloads the credentials. The conversation is kept.
func (c *Client) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.Refresh(ctx)
}

// FetchSources looks up the references of a reply by its fetch id. Never
// fails, problems are logged and result in an empty list.
func (c *Client) FetchSources(ctx context.Context, fetchID string) []Reference {
	return c.ex.Resolver().Fetch(ctx, fetchID)
}

// ExtractMedia from one raw reply line. Lines which can't be decoded hold no
// media.
func (c *Client) ExtractMedia(line string) []MediaItem {
	ev, ok := decode.DecodeLine(line)
	if !ok {
		return make([]MediaItem, 0)
	}
	return media.Extract(ev.ImagineCard)
}

// Config the client ended up with, after defaults and environment.
func (c *Client) Config() Config {
	return c.conf
}

package credentials

import (
	"context"
	"fmt"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/transport"
)

const (
	CookieAbraSess = "abra_sess"
	CookieAbraCsrf = "abra_csrf"
	CookieDatr     = "datr"
	CookieJsDatr   = "_js_datr"
	CookieLsd      = "lsd"
	CookieFbDtsg   = "fb_dtsg"
)

// Provider is the credential bundle consumed by the exchange.
type Provider interface {
	Cookies() map[string]string
	// AccessToken returns the cached anonymous access token, fetching it on first use.
	AccessToken(ctx context.Context) (string, error)
	// CachedAccessToken never triggers a fetch. Empty if none has been fetched.
	CachedAccessToken() string
	IsAuthenticated() bool
	Refresh(ctx context.Context) error
}

// Source loads the cookies of a session. How it obtains them is up to the
// implementation.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

// StaticSource is a fixed cookie bundle.
type StaticSource map[string]string

func (s StaticSource) Load(context.Context) (map[string]string, error) {
	return maps.Clone(map[string]string(s)), nil
}

var envCookies = map[string]string{
	"META_AI_ABRA_SESS": CookieAbraSess,
	"META_AI_ABRA_CSRF": CookieAbraCsrf,
	"META_AI_DATR":      CookieDatr,
	"META_AI_JS_DATR":   CookieJsDatr,
	"META_AI_LSD":       CookieLsd,
	"META_AI_FB_DTSG":   CookieFbDtsg,
}

// EnvSource reads the cookies from META_AI_* environment variables.
type EnvSource struct{}

func (EnvSource) Load(context.Context) (map[string]string, error) {
	ret := make(map[string]string)
	for env, cookie := range envCookies {
		if v := os.Getenv(env); v != "" {
			ret[cookie] = v
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: none of the META_AI_* cookie environment variables are set", models.ErrAuthentication)
	}
	return ret, nil
}

// Context owns the cookies and the lazily fetched access token of a client.
type Context struct {
	source     Source
	session    *transport.Session
	apiURL     string
	tokenDelay time.Duration
	debug      bool

	mu      sync.Mutex
	cookies map[string]string
	token   string
}

type Option func(*Context)

func WithTokenDelay(d time.Duration) Option {
	return func(c *Context) {
		c.tokenDelay = d
	}
}

func WithDebug(debug bool) Option {
	return func(c *Context) {
		c.debug = debug
	}
}

// New loads the cookies from source. apiURL is where the access token is
// fetched from.
func New(ctx context.Context, source Source, session *transport.Session, apiURL string, opts ...Option) (*Context, error) {
	c := &Context{
		source:     source,
		session:    session,
		apiURL:     apiURL,
		tokenDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	cookies, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	c.cookies = cookies
	return c, nil
}

func (c *Context) Cookies() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.cookies)
}

// IsAuthenticated if the bundle holds a logged in session cookie.
func (c *Context) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cookies[CookieAbraSess] != ""
}

func (c *Context) CachedAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Context) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.fetchAccessToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// Refresh reloads the cookies. The cached token belongs to the old cookies
// and is dropped.
func (c *Context) Refresh(ctx context.Context) error {
	cookies, err := c.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh cookies: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = cookies
	c.token = ""
	if c.debug {
		ancli.PrintOK("refreshed credential cookies\n")
	}
	return nil
}

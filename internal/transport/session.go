package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// maxLineSize of a single streamed line. Replies with large media cards are
// well above bufio's default.
const maxLineSize = 4 * 1024 * 1024

// TransportFactory creates the round tripper of a session, given its proxy.
type TransportFactory func(proxy *url.URL) http.RoundTripper

func DefaultTransportFactory(proxy *url.URL) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	}
	return t
}

// Session is a http client bound to a proxy and user agent.
type Session struct {
	client       *http.Client
	proxy        *url.URL
	userAgent    string
	timeout      time.Duration
	newTransport TransportFactory
	debug        bool
	// disposable sessions drop their idle connections after every call
	disposable bool
}

type Option func(*Session)

func WithTransportFactory(f TransportFactory) Option {
	return func(s *Session) {
		s.newTransport = f
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

func WithDebug(debug bool) Option {
	return func(s *Session) {
		s.debug = debug
	}
}

// NewSession creates the long-lived session, with a cookie jar.
func NewSession(proxy *url.URL, userAgent string, opts ...Option) *Session {
	s := &Session{
		proxy:        proxy,
		userAgent:    userAgent,
		newTransport: DefaultTransportFactory,
	}
	for _, opt := range opts {
		opt(s)
	}
	jar, _ := cookiejar.New(nil)
	s.client = &http.Client{
		Transport: s.newTransport(proxy),
		Jar:       jar,
		Timeout:   s.timeout,
	}
	return s
}

// Isolated returns a fresh session carrying only the proxy settings of s:
// new transport, no cookie jar. Nothing set on s leaks into it.
func (s *Session) Isolated() *Session {
	return &Session{
		client: &http.Client{
			Transport: s.newTransport(s.proxy),
			Timeout:   s.timeout,
		},
		proxy:        s.proxy,
		userAgent:    s.userAgent,
		timeout:      s.timeout,
		newTransport: s.newTransport,
		debug:        s.debug,
		disposable:   true,
	}
}

// release the idle connections of a disposable session.
func (s *Session) release() {
	if s.disposable {
		s.client.CloseIdleConnections()
	}
}

func (s *Session) Proxy() *url.URL {
	return s.proxy
}

// HasCookieJar reports if the session keeps cookies in between calls.
func (s *Session) HasCookieJar() bool {
	return s.client.Jar != nil
}

func (s *Session) do(ctx context.Context, target string, header http.Header, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if s.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	res, err := s.client.Do(req)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("POST %v: %v\n", target, res.Status))
	}
	return res, nil
}

// Post the form and return the complete response body. Status codes are not
// interpreted, a body which isn't a valid reply is handled by the decoder.
func (s *Session) Post(ctx context.Context, target string, header http.Header, form url.Values) (string, error) {
	res, err := s.do(ctx, target, header, form)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	s.release()
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

// PostStatus is Post, but also returns the status code.
func (s *Session) PostStatus(ctx context.Context, target string, header http.Header, form url.Values) (int, string, error) {
	res, err := s.do(ctx, target, header, form)
	if err != nil {
		return 0, "", err
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	s.release()
	if err != nil {
		return res.StatusCode, "", fmt.Errorf("failed to read body: %w", err)
	}
	return res.StatusCode, string(body), nil
}

// PostLines posts the form and returns the body as a forward only line stream.
// The caller must Close it.
func (s *Session) PostLines(ctx context.Context, target string, header http.Header, form url.Values) (*LineStream, error) {
	res, err := s.do(ctx, target, header, form)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(res.Body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &LineStream{body: res.Body, scanner: sc, release: s.release}, nil
}

// LineStream iterates the lines of a response body. It's single pass, a new
// request has to be issued to read the reply again.
type LineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	release func()
	closed  bool
}

func (l *LineStream) Next() bool {
	if l.closed {
		return false
	}
	return l.scanner.Scan()
}

func (l *LineStream) Text() string {
	return l.scanner.Text()
}

func (l *LineStream) Err() error {
	if err := l.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read line: %w", err)
	}
	return nil
}

// Close releases the connection. Safe to call more than once.
func (l *LineStream) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.body.Close()
	if l.release != nil {
		l.release()
	}
	return err
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

// roundTripFunc allows injecting errors in http.Client
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestPost_SendsFormAndHeaders(t *testing.T) {
	var gotBody, gotUA, gotFriendly, gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotUA = r.Header.Get("User-Agent")
		gotFriendly = r.Header.Get("X-Fb-Friendly-Name")
		gotCT = r.Header.Get("Content-Type")
		fmt.Fprint(w, "pong")
	}))
	defer ts.Close()

	s := NewSession(nil, "test-agent")
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("X-Fb-Friendly-Name", "friendly")
	body, err := s.Post(context.Background(), ts.URL, h, url.Values{"a": {"b c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, body, "pong")
	testboil.FailTestIfDiff(t, gotBody, "a=b+c")
	testboil.FailTestIfDiff(t, gotUA, "test-agent")
	testboil.FailTestIfDiff(t, gotFriendly, "friendly")
	testboil.FailTestIfDiff(t, gotCT, "application/x-www-form-urlencoded")
}

func TestPost_NonOKIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "<html>blocked</html>")
	}))
	defer ts.Close()
	s := NewSession(nil, "")
	body, err := s.Post(context.Background(), ts.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.AssertStringContains(t, body, "blocked")

	status, _, err := s.PostStatus(context.Background(), ts.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, status, http.StatusForbidden)
}

func TestPost_TransportError(t *testing.T) {
	s := NewSession(nil, "", WithTransportFactory(func(*url.URL) http.RoundTripper {
		return roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})
	}))
	_, err := s.Post(context.Background(), "http://example.invalid", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "failed to execute request") {
		t.Fatalf("expected execute request error, got: %v", err)
	}
}

func TestPostLines_ForwardOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "first\n\nsecond\nthird")
	}))
	defer ts.Close()

	s := NewSession(nil, "")
	ls, err := s.PostLines(context.Background(), ts.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ls.Close()
	var got []string
	for ls.Next() {
		got = append(got, ls.Text())
	}
	if ls.Err() != nil {
		t.Fatalf("unexpected stream error: %v", ls.Err())
	}
	testboil.FailTestIfDiff(t, strings.Join(got, "|"), "first||second|third")
	if ls.Next() {
		t.Fatal("expected exhausted stream to stay exhausted")
	}
}

func TestLineStream_CloseStopsIteration(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "a\nb\n")
	}))
	defer ts.Close()
	ls, err := NewSession(nil, "").PostLines(context.Background(), ts.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ls.Next() {
		t.Fatal("expected a first line")
	}
	if err := ls.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ls.Next() {
		t.Fatal("expected no lines after close")
	}
	if err := ls.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestIsolated_KeepsProxyDropsJar(t *testing.T) {
	proxy, _ := url.Parse("http://proxy.invalid:3128")
	var factoryProxies []*url.URL
	s := NewSession(proxy, "ua", WithTransportFactory(func(p *url.URL) http.RoundTripper {
		factoryProxies = append(factoryProxies, p)
		return http.DefaultTransport
	}))
	if !s.HasCookieJar() {
		t.Fatal("expected long lived session to keep cookies")
	}
	iso := s.Isolated()
	if iso == s || iso.client == s.client {
		t.Fatal("expected a fresh session")
	}
	if iso.HasCookieJar() {
		t.Fatal("isolated session must not carry a cookie jar")
	}
	testboil.FailTestIfDiff(t, iso.Proxy().String(), proxy.String())
	testboil.FailTestIfDiff(t, len(factoryProxies), 2)
	testboil.FailTestIfDiff(t, factoryProxies[1].String(), proxy.String())
}

func TestDefaultTransportFactory_SetsProxy(t *testing.T) {
	proxy, _ := url.Parse("http://proxy.invalid:3128")
	rt, ok := DefaultTransportFactory(proxy).(*http.Transport)
	if !ok {
		t.Fatal("expected *http.Transport")
	}
	req, _ := http.NewRequest(http.MethodGet, "https://www.meta.ai", nil)
	got, err := rt.Proxy(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, got.String(), proxy.String())
}

// idleCounter counts how often the client asks it to drop idle connections.
type idleCounter struct {
	*http.Transport
	closes int
}

func (c *idleCounter) CloseIdleConnections() {
	c.closes++
	c.Transport.CloseIdleConnections()
}

func TestIsolated_ReleasesIdleConnections(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "a\nb\n")
	}))
	defer ts.Close()
	var counters []*idleCounter
	s := NewSession(nil, "", WithTransportFactory(func(*url.URL) http.RoundTripper {
		c := &idleCounter{Transport: http.DefaultTransport.(*http.Transport).Clone()}
		counters = append(counters, c)
		return c
	}))

	if _, err := s.Post(context.Background(), ts.URL, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, counters[0].closes, 0)

	if _, err := s.Isolated().Post(context.Background(), ts.URL, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, counters[1].closes, 1)

	ls, err := s.Isolated().PostLines(context.Background(), ts.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ls.Next() {
	}
	testboil.FailTestIfDiff(t, counters[2].closes, 0)
	ls.Close()
	ls.Close()
	testboil.FailTestIfDiff(t, counters[2].closes, 1)
}

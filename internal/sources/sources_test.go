package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/baalimago/metai/internal/graphql"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/transport"
)

type fakeCreds struct {
	token string
}

func (f fakeCreds) Cookies() map[string]string {
	return map[string]string{"abra_csrf": "csrf", "datr": "d"}
}

func (f fakeCreds) AccessToken(context.Context) (string, error) { return f.token, nil }
func (f fakeCreds) CachedAccessToken() string                   { return f.token }
func (f fakeCreds) IsAuthenticated() bool                       { return false }
func (f fakeCreds) Refresh(context.Context) error               { return nil }

func server(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("fb_api_req_friendly_name"); got != graphql.FriendlySearchPlugin {
			t.Errorf("unexpected friendly name: %v", got)
		}
		if got := r.PostForm.Get("variables"); got != `{"abraMessageFetchID":"F1"}` {
			t.Errorf("unexpected variables: %v", got)
		}
		if got := r.Header.Get("Cookie"); got != "dpr=2; abra_csrf=csrf; datr=d; ps_n=1; ps_l=1" {
			t.Errorf("unexpected cookie: %v", got)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFetch_NoNetworkWithoutHandleOrToken(t *testing.T) {
	var calls atomic.Int32
	ts := server(t, http.StatusOK, `{}`, &calls)

	withToken := NewResolver(fakeCreds{token: "tok"}, transport.NewSession(nil, ""), ts.URL, false)
	got := withToken.Fetch(context.Background(), "")
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	testboil.FailTestIfDiff(t, len(got), 0)

	noToken := NewResolver(fakeCreds{}, transport.NewSession(nil, ""), ts.URL, false)
	testboil.FailTestIfDiff(t, len(noToken.Fetch(context.Background(), "F1")), 0)

	testboil.FailTestIfDiff(t, calls.Load(), int32(0))
}

func TestFetch_References(t *testing.T) {
	var calls atomic.Int32
	ts := server(t, http.StatusOK, `{"data":{"message":{"searchResults":{"references":[
		{"title":"Go","link":"https://go.dev"},
		{"link":"https://example.invalid"},
		{"title":"No link here"},
		"not an object"
	]}}}}`, &calls)
	r := NewResolver(fakeCreds{token: "tok"}, transport.NewSession(nil, ""), ts.URL, false)
	got := r.Fetch(context.Background(), "F1")
	testboil.FailTestIfDiff(t, len(got), 3)
	testboil.FailTestIfDiff(t, got[0], models.Reference{Title: "Go", Link: "https://go.dev"})
	testboil.FailTestIfDiff(t, got[1], models.Reference{Title: models.UnknownTitle, Link: "https://example.invalid"})
	testboil.FailTestIfDiff(t, got[2], models.Reference{Title: "No link here", Link: models.NoLink})
	testboil.FailTestIfDiff(t, calls.Load(), int32(1))
}

func TestFetch_DegradesToEmpty(t *testing.T) {
	testCases := []struct {
		desc   string
		status int
		body   string
	}{
		{desc: "bad status", status: http.StatusInternalServerError, body: `{"data":{"message":{"searchResults":{"references":[{"title":"x"}]}}}}`},
		{desc: "not json", status: http.StatusOK, body: "<html>"},
		{desc: "no message", status: http.StatusOK, body: `{"data":{}}`},
		{desc: "null search results", status: http.StatusOK, body: `{"data":{"message":{"searchResults":null}}}`},
		{desc: "references not a list", status: http.StatusOK, body: `{"data":{"message":{"searchResults":{"references":{"a":1}}}}}`},
		{desc: "message wrong shape", status: http.StatusOK, body: `{"data":{"message":"nope"}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var calls atomic.Int32
			ts := server(t, tc.status, tc.body, &calls)
			r := NewResolver(fakeCreds{token: "tok"}, transport.NewSession(nil, ""), ts.URL, false)
			got := r.Fetch(context.Background(), "F1")
			if got == nil {
				t.Fatal("expected non-nil empty slice")
			}
			testboil.FailTestIfDiff(t, len(got), 0)
		})
	}
}

func TestFetch_TransportErrorDegradesToEmpty(t *testing.T) {
	r := NewResolver(fakeCreds{token: "tok"}, transport.NewSession(nil, ""), "http://127.0.0.1:0", false)
	testboil.FailTestIfDiff(t, len(r.Fetch(context.Background(), "F1")), 0)
}

package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/internal/graphql"
	"github.com/baalimago/metai/internal/models"
)

type acceptTOSResponse struct {
	Data *struct {
		AcceptTOS *struct {
			NewTempUserAuth *struct {
				AccessToken string `json:"access_token"`
			} `json:"new_temp_user_auth"`
		} `json:"xab_abra_accept_terms_of_service"`
	} `json:"data"`
}

func (c *Context) requireCookies(names ...string) error {
	for _, n := range names {
		if c.cookies[n] == "" {
			return fmt.Errorf("%w: missing cookie '%v'", models.ErrAuthentication, n)
		}
	}
	return nil
}

// fetchAccessToken runs the accept-terms-of-service mutation for a temporary
// user. Caller must hold c.mu.
func (c *Context) fetchAccessToken(ctx context.Context) (string, error) {
	if err := c.requireCookies(CookieLsd, CookieJsDatr, CookieAbraCsrf, CookieDatr); err != nil {
		return "", err
	}
	form, err := graphql.AcceptTOSForm(c.cookies[CookieLsd])
	if err != nil {
		return "", fmt.Errorf("failed to build access token request: %w", err)
	}
	header := graphql.AcceptTOSHeaders(c.cookies[CookieJsDatr], c.cookies[CookieAbraCsrf], c.cookies[CookieDatr])
	body, err := c.session.Post(ctx, c.apiURL, header, form)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch access token: %w", models.ErrAuthentication, err)
	}

	var res acceptTOSResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return "", models.ErrRegionBlocked
	}
	if res.Data == nil || res.Data.AcceptTOS == nil || res.Data.AcceptTOS.NewTempUserAuth == nil ||
		res.Data.AcceptTOS.NewTempUserAuth.AccessToken == "" {
		return "", fmt.Errorf("%w: unexpected response structure, missing access token", models.ErrRegionBlocked)
	}
	if c.debug {
		ancli.PrintOK("fetched anonymous access token\n")
	}

	// The service rejects messages sent right after the token is issued
	if err := sleepCtx(ctx, c.tokenDelay); err != nil {
		return "", err
	}
	return res.Data.AcceptTOS.NewTempUserAuth.AccessToken, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

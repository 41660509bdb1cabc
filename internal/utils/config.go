package utils

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

const (
	MetaAIBaseURL  = "https://www.meta.ai"
	MetaAIAPIURL   = "https://www.meta.ai/api/graphql/"
	MetaAIGraphURL = "https://graph.meta.ai/graphql?locale=user"

	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Config of the exchange client. Zero values are replaced by DefaultConfig
// when passed through WithDefaults.
type Config struct {
	APIURL     string        `json:"api-url"`
	GraphURL   string        `json:"graph-url"`
	Proxy      string        `json:"proxy"`
	UserAgent  string        `json:"user-agent"`
	MaxRetries int           `json:"max-retries"`
	RetryDelay time.Duration `json:"retry-delay"`
	TokenDelay time.Duration `json:"token-delay"`
	// Timeout of each http call. Zero means no timeout.
	Timeout time.Duration `json:"timeout"`
	Debug   bool          `json:"debug"`
}

var DefaultConfig = Config{
	APIURL:     MetaAIAPIURL,
	GraphURL:   MetaAIGraphURL,
	UserAgent:  DefaultUserAgent,
	MaxRetries: 3,
	RetryDelay: 3 * time.Second,
	TokenDelay: time.Second,
}

// LoadConfigFromEnv returns dflt overridden by any META_AI_* environment variables.
func LoadConfigFromEnv(dflt Config) (Config, error) {
	conf := dflt
	if v := os.Getenv("META_AI_API_URL"); v != "" {
		conf.APIURL = v
	}
	if v := os.Getenv("META_AI_GRAPH_URL"); v != "" {
		conf.GraphURL = v
	}
	if v := os.Getenv("META_AI_USER_AGENT"); v != "" {
		conf.UserAgent = v
	}
	conf.Proxy = firstNonEmpty(os.Getenv("META_AI_PROXY"), os.Getenv("HTTPS_PROXY"), os.Getenv("HTTP_PROXY"), conf.Proxy)
	if v := os.Getenv("META_AI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return dflt, fmt.Errorf("failed to parse META_AI_MAX_RETRIES: '%v'", v)
		}
		conf.MaxRetries = n
	}
	for env, field := range map[string]*time.Duration{
		"META_AI_RETRY_DELAY": &conf.RetryDelay,
		"META_AI_TOKEN_DELAY": &conf.TokenDelay,
		"META_AI_TIMEOUT":     &conf.Timeout,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return dflt, fmt.Errorf("failed to parse %v: %w", env, err)
		}
		*field = d
	}
	if misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("META_AI_DEBUG")) {
		conf.Debug = true
	}
	if conf.Debug {
		ancli.PrintOK(fmt.Sprintf("found config: %v\n", debug.IndentedJsonFmt(conf)))
	}
	return conf, nil
}

// WithDefaults fills every zero field of c from DefaultConfig. MaxRetries
// can't be set to 0 this way, use LoadConfigFromEnv for that.
func (c Config) WithDefaults() Config {
	dflt := DefaultConfig
	setNonZeroValueFields(&c, &dflt)
	return c
}

// ProxyURL parses the configured proxy, nil if none is set.
func (c Config) ProxyURL() (*url.URL, error) {
	if c.Proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy '%v': %w", c.Proxy, err)
	}
	return u, nil
}

// ParseDuration accepts either a go duration string ("3s") or plain seconds ("3", "0.5").
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("'%v' is neither a duration nor seconds", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// setNonZeroValueFields on a using b as template
func setNonZeroValueFields[T any](a, b *T) bool {
	hasChanged := false
	t := reflect.TypeOf(*a)
	for i := range t.NumField() {
		f := t.Field(i)
		aVal := reflect.ValueOf(a).Elem().FieldByName(f.Name)
		bVal := reflect.ValueOf(b).Elem().FieldByName(f.Name)
		if f.IsExported() && aVal.IsZero() && !bVal.IsZero() {
			hasChanged = true
			aVal.Set(bVal)
		}
	}
	return hasChanged
}

func ReturnNonDefault[T comparable](a, b, defaultVal T) (T, error) {
	if a != defaultVal && b != defaultVal {
		return defaultVal, fmt.Errorf("values are mutually exclusive")
	}
	if a != defaultVal {
		return a, nil
	}
	if b != defaultVal {
		return b, nil
	}
	return defaultVal, nil
}

// Package graphql builds the url-encoded form bodies and headers of the
// persisted relay queries used by the Meta AI web client.
package graphql

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DocIDAcceptTOS    = "7604648749596940"
	DocIDSendMessage  = "7783822248314888"
	DocIDSearchPlugin = "6946734308765963"

	CallerClass = "RelayModern"

	FriendlySendMessage  = "useAbraSendMessageMutation"
	FriendlySearchPlugin = "AbraSearchPluginDialogQuery"
	FriendlyAcceptTOS    = "useAbraAcceptTOSForTempUserMutation"

	DefaultDOB            = "1999-01-01"
	DefaultIcebreakerType = "TEXT"
	DefaultEntrypoint     = "ABRA__CHAT__TEXT"

	formContentType = "application/x-www-form-urlencoded"
)

// AuthFragment is the part of the form which authorizes the call. Exactly one
// of the fields is set.
type AuthFragment struct {
	// FbDtsg is the signed form token of an authenticated session.
	FbDtsg string
	// AccessToken is the anonymous temp user token.
	AccessToken string
}

func (a AuthFragment) apply(v url.Values) {
	if a.FbDtsg != "" {
		v.Set("fb_dtsg", a.FbDtsg)
		return
	}
	v.Set("access_token", a.AccessToken)
}

type sensitiveString struct {
	Value string `json:"sensitive_string_value"`
}

type flashVideoRecapInput struct {
	Images []string `json:"images"`
}

type sendMessageVariables struct {
	Message                sensitiveString      `json:"message"`
	ExternalConversationID *string              `json:"externalConversationId"`
	OfflineThreadingID     string               `json:"offlineThreadingId"`
	SuggestedPromptIndex   *int                 `json:"suggestedPromptIndex"`
	FlashVideoRecapInput   flashVideoRecapInput `json:"flashVideoRecapInput"`
	FlashPreviewInput      *string              `json:"flashPreviewInput"`
	PromptPrefix           *string              `json:"promptPrefix"`
	Entrypoint             string               `json:"entrypoint"`
	IcebreakerType         string               `json:"icebreaker_type"`
	DebugDevOnly           bool                 `json:"__relay_internal__pv__AbraDebugDevOnlyrelayprovider"`
	WebPixelRatio          int                  `json:"__relay_internal__pv__WebPixelRatiorelayprovider"`
}

type searchPluginVariables struct {
	AbraMessageFetchID string `json:"abraMessageFetchID"`
}

type acceptTOSVariables struct {
	DOB            string `json:"dob"`
	IcebreakerType string `json:"icebreaker_type"`
	WebPixelRatio  int    `json:"__relay_internal__pv__WebPixelRatiorelayprovider"`
}

func baseForm(friendlyName, docID string, variables any) (url.Values, error) {
	vars, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variables: %w", err)
	}
	v := url.Values{}
	v.Set("fb_api_caller_class", CallerClass)
	v.Set("fb_api_req_friendly_name", friendlyName)
	v.Set("variables", string(vars))
	v.Set("doc_id", docID)
	return v, nil
}

// SendMessageForm builds the form of one turn. An empty conversationID is
// sent as null.
func SendMessageForm(auth AuthFragment, text, conversationID, nonce string) (url.Values, error) {
	vars := sendMessageVariables{
		Message:              sensitiveString{Value: text},
		OfflineThreadingID:   nonce,
		FlashVideoRecapInput: flashVideoRecapInput{Images: []string{}},
		Entrypoint:           DefaultEntrypoint,
		IcebreakerType:       DefaultIcebreakerType,
		WebPixelRatio:        1,
	}
	if conversationID != "" {
		vars.ExternalConversationID = &conversationID
	}
	v, err := baseForm(FriendlySendMessage, DocIDSendMessage, vars)
	if err != nil {
		return nil, err
	}
	auth.apply(v)
	v.Set("server_timestamps", "true")
	return v, nil
}

// SendMessageHeaders of a turn. Authenticated calls carry the session cookie
// and nothing else.
func SendMessageHeaders(abraSess string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", formContentType)
	h.Set("X-Fb-Friendly-Name", FriendlySendMessage)
	if abraSess != "" {
		h.Set("Cookie", "abra_sess="+abraSess)
	}
	return h
}

func SearchPluginForm(accessToken, fetchID string) (url.Values, error) {
	v, err := baseForm(FriendlySearchPlugin, DocIDSearchPlugin, searchPluginVariables{AbraMessageFetchID: fetchID})
	if err != nil {
		return nil, err
	}
	v.Set("access_token", accessToken)
	v.Set("server_timestamps", "true")
	return v, nil
}

func SearchPluginHeaders(cookies map[string]string) http.Header {
	h := http.Header{}
	h.Set("Authority", "graph.meta.ai")
	h.Set("Accept-Language", "en-US,en;q=0.9,fr-FR;q=0.8,fr;q=0.7")
	h.Set("Content-Type", formContentType)
	h.Set("Cookie", fmt.Sprintf("dpr=2; abra_csrf=%v; datr=%v; ps_n=1; ps_l=1", cookies["abra_csrf"], cookies["datr"]))
	h.Set("X-Fb-Friendly-Name", FriendlySearchPlugin)
	return h
}

func AcceptTOSForm(lsd string) (url.Values, error) {
	v, err := baseForm(FriendlyAcceptTOS, DocIDAcceptTOS, acceptTOSVariables{
		DOB:            DefaultDOB,
		IcebreakerType: DefaultIcebreakerType,
		WebPixelRatio:  1,
	})
	if err != nil {
		return nil, err
	}
	v.Set("lsd", lsd)
	return v, nil
}

func AcceptTOSHeaders(jsDatr, abraCsrf, datr string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", formContentType)
	h.Set("Cookie", fmt.Sprintf("_js_datr=%v; abra_csrf=%v; datr=%v;", jsDatr, abraCsrf, datr))
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("X-Fb-Friendly-Name", FriendlyAcceptTOS)
	return h
}

const mask22Bits = (1 << 22) - 1

// OfflineThreadingID generates the per call nonce: current unix millis
// shifted 22 bits, low bits random.
func OfflineThreadingID() string {
	return offlineThreadingID(time.Now(), rand.Uint64())
}

func offlineThreadingID(now time.Time, random uint64) string {
	ts := uint64(now.UnixMilli())
	return strconv.FormatUint((ts<<22)|(random&mask22Bits), 10)
}

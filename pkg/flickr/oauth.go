package flickr

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "photonotes/pkg/errors"
)

// OAuth 1.0a endpoints. Flickr still runs the classic three-legged flow;
// the verifier is entered manually (out-of-band callback).
const (
	requestTokenURL = "https://www.flickr.com/services/oauth/request_token"
	authorizeURL    = "https://www.flickr.com/services/oauth/authorize"
	accessTokenURL  = "https://www.flickr.com/services/oauth/access_token"
)

// oauthNonce returns 16 random bytes hex-encoded
func oauthNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform RNG is broken
		panic(err)
	}
	return hex.EncodeToString(b)
}

// percentEncode applies RFC 3986 encoding as OAuth 1.0a requires it,
// stricter than url.QueryEscape (no '+' for spaces)
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// oauthSignature computes the HMAC-SHA1 signature over the request per
// RFC 5849: METHOD&encoded-url&encoded-sorted-params, keyed with
// consumerSecret&tokenSecret
func oauthSignature(httpMethod, requestURL string, params url.Values, consumerSecret, tokenSecret string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		if name == "oauth_signature" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, percentEncode(name)+"="+percentEncode(params.Get(name)))
	}

	base := strings.ToUpper(httpMethod) + "&" +
		percentEncode(requestURL) + "&" +
		percentEncode(strings.Join(pairs, "&"))
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// sign adds the OAuth parameter set and signature for the active session
// to an API request. Called only when a session token is present.
func (c *Client) sign(requestURL string, params url.Values) {
	params.Set("oauth_consumer_key", c.apiKey)
	params.Set("oauth_nonce", oauthNonce())
	params.Set("oauth_signature_method", "HMAC-SHA1")
	params.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("oauth_version", "1.0")
	params.Set("oauth_token", c.oauthToken)
	params.Set("oauth_signature",
		oauthSignature("GET", requestURL, params, c.apiSecret, c.oauthTokenSecret))
}

// GetRequestToken starts the OAuth flow and returns a temporary token
func (c *Client) GetRequestToken(ctx context.Context) (*RequestToken, error) {
	params := url.Values{}
	params.Set("oauth_callback", "oob")
	params.Set("oauth_consumer_key", c.apiKey)
	params.Set("oauth_nonce", oauthNonce())
	params.Set("oauth_signature_method", "HMAC-SHA1")
	params.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("oauth_version", "1.0")
	params.Set("oauth_signature",
		oauthSignature("GET", c.requestTokenURL, params, c.apiSecret, ""))

	values, err := c.fetchForm(ctx, c.requestTokenURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	token := values.Get("oauth_token")
	secret := values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return nil, apperrors.New(apperrors.ErrorTypeAuth, "request token exchange returned no token")
	}

	return &RequestToken{Token: token, TokenSecret: secret}, nil
}

// AuthorizationURL builds the page the user must visit to authorize the
// request token; permissions is read, write or delete
func (c *Client) AuthorizationURL(token *RequestToken, permissions string) string {
	params := url.Values{}
	params.Set("oauth_token", token.Token)
	params.Set("perms", permissions)
	return c.authorizeURL + "?" + params.Encode()
}

// GetAccessToken exchanges an authorized request token plus the verifier
// the user copied from the authorization page for a permanent token
func (c *Client) GetAccessToken(ctx context.Context, token *RequestToken, verifier string) (*AccessToken, error) {
	params := url.Values{}
	params.Set("oauth_consumer_key", c.apiKey)
	params.Set("oauth_nonce", oauthNonce())
	params.Set("oauth_signature_method", "HMAC-SHA1")
	params.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("oauth_token", token.Token)
	params.Set("oauth_verifier", verifier)
	params.Set("oauth_version", "1.0")
	params.Set("oauth_signature",
		oauthSignature("GET", c.accessTokenURL, params, c.apiSecret, token.TokenSecret))

	values, err := c.fetchForm(ctx, c.accessTokenURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	access := &AccessToken{
		Token:       values.Get("oauth_token"),
		TokenSecret: values.Get("oauth_token_secret"),
		UserNSID:    values.Get("user_nsid"),
		Username:    values.Get("username"),
		FullName:    values.Get("fullname"),
	}
	if access.Token == "" || access.TokenSecret == "" {
		return nil, apperrors.New(apperrors.ErrorTypeAuth, "access token exchange returned no token")
	}

	return access, nil
}

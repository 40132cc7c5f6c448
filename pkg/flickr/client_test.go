package flickr

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// Helper function to create a mock HTTP client
func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
}

// Helper function to create a response
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// countingLimiter records Wait calls so tests can see when the limiter
// was consulted
type countingLimiter struct {
	waits int
}

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Wait()       { l.waits++ }
func (l *countingLimiter) Reset()      {}

// Helper to build a client with a mock transport and counting limiter
func newTestClient(handler func(req *http.Request) (*http.Response, error)) (*Client, *countingLimiter) {
	client := NewClient("test-key", "test-secret", 30*time.Second, logger.NewTestLogger())
	client.httpClient = newMockHTTPClient(handler)
	limiter := &countingLimiter{}
	client.limiter = limiter
	return client, limiter
}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient("key", "secret", 30*time.Second, log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.cache)
	assert.NotNil(t, client.limiter)
	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, log, client.logger)
	assert.False(t, client.HasSession())
}

func TestCall(t *testing.T) {
	transportCalls := 0
	client, limiter := newTestClient(func(req *http.Request) (*http.Response, error) {
		transportCalls++
		q := req.URL.Query()
		assert.Equal(t, "flickr.test.echo", q.Get("method"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("nojsoncallback"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		return newResponse(http.StatusOK, `{"stat":"ok"}`), nil
	})

	body, err := client.Call(context.Background(), "flickr.test.echo", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"stat":"ok"}`, string(body))
	assert.Equal(t, 1, transportCalls)
	assert.Equal(t, 1, limiter.waits)

	// Second identical call is a cache hit: no transport, no limiter
	body, err = client.Call(context.Background(), "flickr.test.echo", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"stat":"ok"}`, string(body))
	assert.Equal(t, 1, transportCalls)
	assert.Equal(t, 1, limiter.waits)

	stats := client.Cache().Snapshot()
	require.NotEmpty(t, stats)
	assert.Equal(t, "_all", stats[0].Name)
	assert.Equal(t, 1, stats[0].Hits)
	assert.Equal(t, 1, stats[0].Misses)

	log := client.logger.(*logger.TestLogger)
	assert.True(t, log.HasMessage("API call completed"))
	assert.True(t, log.HasMessage("API call served from cache"))
}

func TestCallAPIFailure(t *testing.T) {
	transportCalls := 0
	client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		transportCalls++
		return newResponse(http.StatusOK,
			`{"stat":"fail","code":1,"message":"Photo not found"}`), nil
	})

	_, err := client.Call(context.Background(), "flickr.photos.getInfo", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
	assert.Equal(t, 1, errors.CodeOf(err))

	// Failures are not cached
	_, err = client.Call(context.Background(), "flickr.photos.getInfo", nil)
	require.Error(t, err)
	assert.Equal(t, 2, transportCalls)

	log := client.logger.(*logger.TestLogger)
	failures := log.GetMessagesByLevel("ERROR")
	require.NotEmpty(t, failures)
	assert.Equal(t, "API call failed", failures[0].Message)
	assert.Equal(t, false, failures[0].Fields["retryable"], "a missing photo is not worth retrying")
}

func TestCheckResponseStatus(t *testing.T) {
	client, _ := newTestClient(nil)

	tests := []struct {
		name         string
		statusCode   int
		expectedType errors.ErrorType
	}{
		{
			name:       "200 OK",
			statusCode: http.StatusOK,
		},
		{
			name:         "401 Unauthorized",
			statusCode:   http.StatusUnauthorized,
			expectedType: errors.ErrorTypeAuth,
		},
		{
			name:         "403 Forbidden",
			statusCode:   http.StatusForbidden,
			expectedType: errors.ErrorTypeAuth,
		},
		{
			name:         "404 Not Found",
			statusCode:   http.StatusNotFound,
			expectedType: errors.ErrorTypeNotFound,
		},
		{
			name:         "429 Too Many Requests",
			statusCode:   http.StatusTooManyRequests,
			expectedType: errors.ErrorTypeRateLimit,
		},
		{
			name:         "500 Internal Server Error",
			statusCode:   http.StatusInternalServerError,
			expectedType: errors.ErrorTypeServerError,
		},
		{
			name:         "503 Service Unavailable",
			statusCode:   http.StatusServiceUnavailable,
			expectedType: errors.ErrorTypeServerError,
		},
		{
			name:         "400 Bad Request",
			statusCode:   http.StatusBadRequest,
			expectedType: errors.ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.statusCode}

			err := client.checkResponseStatus(resp)
			if tt.expectedType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedType, errors.TypeOf(err))
			assert.Equal(t, tt.statusCode, errors.CodeOf(err))
		})
	}
}

func TestCheckFail(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedType errors.ErrorType
		expectedCode int
	}{
		{
			name: "ok envelope",
			body: `{"stat":"ok","photos":{}}`,
		},
		{
			name:         "not found",
			body:         `{"stat":"fail","code":1,"message":"User not found"}`,
			expectedType: errors.ErrorTypeNotFound,
			expectedCode: 1,
		},
		{
			name:         "login failed",
			body:         `{"stat":"fail","code":98,"message":"Login failed / Invalid auth token"}`,
			expectedType: errors.ErrorTypeAuth,
			expectedCode: 98,
		},
		{
			name:         "insufficient permissions",
			body:         `{"stat":"fail","code":99,"message":"User not logged in / Insufficient permissions"}`,
			expectedType: errors.ErrorTypeAuth,
			expectedCode: 99,
		},
		{
			name:         "invalid api key",
			body:         `{"stat":"fail","code":100,"message":"Invalid API Key"}`,
			expectedType: errors.ErrorTypeAuth,
			expectedCode: 100,
		},
		{
			name:         "service unavailable",
			body:         `{"stat":"fail","code":105,"message":"Service currently unavailable"}`,
			expectedType: errors.ErrorTypeServerError,
			expectedCode: 105,
		},
		{
			name:         "unclassified code",
			body:         `{"stat":"fail","code":116,"message":"Bad URL found"}`,
			expectedType: errors.ErrorTypeUnknown,
			expectedCode: 116,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkFail("flickr.test.echo", []byte(tt.body))
			if tt.expectedType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedType, errors.TypeOf(err))
			assert.Equal(t, tt.expectedCode, errors.CodeOf(err))
		})
	}
}

func TestGetPhotos(t *testing.T) {
	client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "flickr.people.getPhotos", q.Get("method"))
		assert.Equal(t, "12345678@N00", q.Get("user_id"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "500", q.Get("per_page"))
		assert.Equal(t, StreamExtras, q.Get("extras"))
		assert.Equal(t, "1", q.Get("privacy_filter"))

		return newResponse(http.StatusOK, `{
			"photos": {
				"page": 2, "pages": "4", "perpage": 500, "total": "1728",
				"photo": [
					{"id": "53001", "owner": "12345678@N00", "ownername": "Some One",
					 "secret": "ab12cd", "server": "65535", "title": "Harbor at dawn",
					 "license": "4", "description": {"_content": "Morning light"},
					 "dateupload": "1717240000", "datetaken": "2024-05-30 06:12:44",
					 "lastupdate": "1717250000", "ispublic": 1}
				]
			},
			"stat": "ok"
		}`), nil
	})

	page, err := client.GetPhotos(context.Background(), "12345678@N00", 2, 500)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page.Int())
	assert.Equal(t, 4, page.Pages.Int())
	assert.Equal(t, 1728, page.Total.Int())
	require.Len(t, page.Photo, 1)

	photo := page.Photo[0]
	assert.Equal(t, "53001", photo.ID)
	assert.Equal(t, "Harbor at dawn", photo.Title)
	assert.Equal(t, "4", photo.License)
	assert.Equal(t, "Morning light", photo.Description.Text)
	assert.Equal(t, "2024-05-30 06:12:44", photo.DateTaken)
}

func TestGetPersonInfoReturnsRawBody(t *testing.T) {
	const body = `{"person":{"id":"12345678@N00","nsid":"12345678@N00",` +
		`"ispro":1,"iconserver":"123","iconfarm":9,` +
		`"username":{"_content":"someone"},"realname":{"_content":"Some One"},` +
		`"photos":{"firstdate":{"_content":"1093297683"},` +
		`"firstdatetaken":{"_content":"2004-08-23 17:15:29"},"count":{"_content":1655}}},` +
		`"stat":"ok"}`

	client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, body), nil
	})

	person, raw, err := client.GetPersonInfo(context.Background(), "12345678@N00")
	require.NoError(t, err)

	assert.Equal(t, "someone", person.Username.Text)
	assert.Equal(t, 1655, person.Photos.Count.Int())
	assert.Equal(t, 1, person.IsPro.Int())
	assert.JSONEq(t, body, string(raw))
}

func TestGetLocation(t *testing.T) {
	t.Run("with location", func(t *testing.T) {
		client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
			return newResponse(http.StatusOK, `{
				"photo": {"id": "53001", "location": {
					"latitude": "51.21", "longitude": "4.40", "accuracy": "16",
					"locality": {"_content": "Antwerpen"},
					"region": {"_content": "Vlaanderen"},
					"country": {"_content": "Belgium"}
				}},
				"stat": "ok"
			}`), nil
		})

		loc, err := client.GetLocation(context.Background(), "53001")
		require.NoError(t, err)
		require.NotNil(t, loc)
		assert.Equal(t, "Antwerpen, Vlaanderen, Belgium", loc.Describe())
	})

	t.Run("photo has no location", func(t *testing.T) {
		client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
			return newResponse(http.StatusOK,
				`{"stat":"fail","code":2,"message":"Photo has no location information."}`), nil
		})

		loc, err := client.GetLocation(context.Background(), "53001")
		require.NoError(t, err)
		assert.Nil(t, loc)
	})
}

func TestCallSignsWithSession(t *testing.T) {
	client, _ := newTestClient(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		assert.Equal(t, "session-token", q.Get("oauth_token"))
		assert.Equal(t, "HMAC-SHA1", q.Get("oauth_signature_method"))
		assert.NotEmpty(t, q.Get("oauth_signature"))
		assert.NotEmpty(t, q.Get("oauth_nonce"))
		return newResponse(http.StatusOK, `{"stat":"ok"}`), nil
	})
	client.SetSession("session-token", "session-secret")

	_, err := client.Call(context.Background(), "flickr.test.login", nil)
	require.NoError(t, err)
}

func TestDownloadImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	client, limiter := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(payload)),
			Header:     make(http.Header),
		}, nil
	})

	data, err := client.DownloadImage(context.Background(), "https://live.staticflickr.com/65535/53001_ab12cd_m.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, 0, limiter.waits, "image downloads must not consume API quota")
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *URLSpec
		wantErr  bool
	}{
		{
			name: "photo page",
			raw:  "https://www.flickr.com/photos/someone/53001234567/",
			expected: &URLSpec{
				Kind: URLKindPhoto, Owner: "someone", PhotoID: "53001234567",
				URL: "https://www.flickr.com/photos/someone/53001234567/",
			},
		},
		{
			name: "photo page with context path",
			raw:  "https://www.flickr.com/photos/someone/53001234567/in/photolist-abc",
			expected: &URLSpec{
				Kind: URLKindPhoto, Owner: "someone", PhotoID: "53001234567",
				URL: "https://www.flickr.com/photos/someone/53001234567/in/photolist-abc",
			},
		},
		{
			name: "photo page with pinned stream page",
			raw:  "https://www.flickr.com/photos/someone/53001234567/:7",
			expected: &URLSpec{
				Kind: URLKindPhoto, Owner: "someone", PhotoID: "53001234567", Page: 7,
				URL: "https://www.flickr.com/photos/someone/53001234567/",
			},
		},
		{
			name: "member page",
			raw:  "https://www.flickr.com/people/12345678@N00/",
			expected: &URLSpec{
				Kind: URLKindPerson, Owner: "12345678@N00",
				URL: "https://www.flickr.com/people/12345678@N00/",
			},
		},
		{
			name: "legacy secure host",
			raw:  "https://secure.flickr.com/photos/someone/53001234567",
			expected: &URLSpec{
				Kind: URLKindPhoto, Owner: "someone", PhotoID: "53001234567",
				URL: "https://secure.flickr.com/photos/someone/53001234567",
			},
		},
		{
			name:    "not a flickr URL",
			raw:     "https://example.com/photos/someone/53001234567/",
			wantErr: true,
		},
		{
			name:    "photo URL without id",
			raw:     "https://www.flickr.com/photos/someone/",
			wantErr: true,
		},
		{
			name:    "photo URL with non-numeric id",
			raw:     "https://www.flickr.com/photos/someone/albums",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrorTypeParsing, errors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestIsNSID(t *testing.T) {
	assert.True(t, IsNSID("12345678@N00"))
	assert.True(t, IsNSID("7654321@N05"))
	assert.False(t, IsNSID("someone"))
	assert.False(t, IsNSID("12345678@X00"))
	assert.False(t, IsNSID("@N00"))
	assert.False(t, IsNSID("12345678@N"))
}

func TestBuddyIconURL(t *testing.T) {
	assert.Equal(t,
		"https://farm9.staticflickr.com/123/buddyicons/12345678@N00.jpg",
		BuddyIconURL(9, "123", "12345678@N00"))
	assert.Equal(t,
		"https://www.flickr.com/images/buddyicon.gif",
		BuddyIconURL(0, "0", "12345678@N00"))
}

func TestOAuthSignature(t *testing.T) {
	// Known vector from the OAuth Core 1.0 specification, appendix A.5.2
	params := url.Values{
		"file":                   {"vacation.jpg"},
		"size":                   {"original"},
		"oauth_consumer_key":     {"dpf43f3p2l4k3l03"},
		"oauth_token":            {"nnch734d00sl2jdk"},
		"oauth_signature_method": {"HMAC-SHA1"},
		"oauth_timestamp":        {"1191242096"},
		"oauth_nonce":            {"kllo9940pd9333jh"},
		"oauth_version":          {"1.0"},
	}

	sig := oauthSignature("GET", "http://photos.example.net/photos", params,
		"kd94hf93k423kf44", "pfkkdhi9sl3r4s00")
	assert.Equal(t, "tR3+Ty81lMeYAr/Fid0kMTYa/WM=", sig)
}

func TestOAuthTokenExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/request_token":
			assert.Equal(t, "oob", q.Get("oauth_callback"))
			assert.NotEmpty(t, q.Get("oauth_signature"))
			w.Write([]byte("oauth_callback_confirmed=true&oauth_token=req-token&oauth_token_secret=req-secret"))
		case "/access_token":
			assert.Equal(t, "req-token", q.Get("oauth_token"))
			assert.Equal(t, "286753", q.Get("oauth_verifier"))
			w.Write([]byte("fullname=Some%20One&oauth_token=acc-token&oauth_token_secret=acc-secret&user_nsid=12345678%40N00&username=someone"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient("key", "secret", 30*time.Second, logger.NewTestLogger())
	client.requestTokenURL = server.URL + "/request_token"
	client.accessTokenURL = server.URL + "/access_token"

	reqToken, err := client.GetRequestToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "req-token", reqToken.Token)
	assert.Equal(t, "req-secret", reqToken.TokenSecret)

	authURL := client.AuthorizationURL(reqToken, "write")
	assert.Contains(t, authURL, "oauth_token=req-token")
	assert.Contains(t, authURL, "perms=write")

	access, err := client.GetAccessToken(context.Background(), reqToken, "286753")
	require.NoError(t, err)
	assert.Equal(t, "acc-token", access.Token)
	assert.Equal(t, "acc-secret", access.TokenSecret)
	assert.Equal(t, "12345678@N00", access.UserNSID)
	assert.Equal(t, "someone", access.Username)
	assert.Equal(t, "Some One", access.FullName)
}

func TestNumberUnmarshal(t *testing.T) {
	var page PhotoPage
	err := page.Pages.UnmarshalJSON([]byte(`"12"`))
	require.NoError(t, err)
	assert.Equal(t, 12, page.Pages.Int())

	err = page.Total.UnmarshalJSON([]byte(`3456`))
	require.NoError(t, err)
	assert.Equal(t, 3456, page.Total.Int())

	err = page.Page.UnmarshalJSON([]byte(`""`))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page.Int())
}

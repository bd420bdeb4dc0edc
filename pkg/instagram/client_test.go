package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"igcomments/pkg/comments"
	"igcomments/pkg/config"
	"igcomments/pkg/errors"
	"igcomments/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper intercepts HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
}

func newResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

const pageOneJSON = `{
  "data": {
    "shortcode_media": {
      "id": "3141592653",
      "shortcode": "C0dE123",
      "edge_media_to_parent_comment": {
        "count": 3,
        "page_info": {"has_next_page": true, "end_cursor": "cursor-1"},
        "edges": [
          {"node": {"text": "first!", "created_at": 1700000000, "owner": {"username": "alice", "is_verified": true}, "edge_liked_by": {"count": 4}}},
          {"node": {"text": "nice", "created_at": 1700000100, "owner": {"username": "bob"}}}
        ]
      }
    }
  },
  "status": "ok"
}`

const pageTwoJSON = `{
  "data": {
    "shortcode_media": {
      "shortcode": "C0dE123",
      "edge_media_to_parent_comment": {
        "count": 3,
        "page_info": {"has_next_page": false, "end_cursor": ""},
        "edges": [
          {"node": {"text": "late", "created_at": 1700000200, "owner": {"username": "carol"}}}
        ]
      }
    }
  },
  "status": "ok"
}`

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(30*time.Second, log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, log, client.logger)
	assert.Contains(t, client.headers["User-Agent"], "Mozilla")
	assert.False(t, client.HasSession())
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.InstagramConfig{
		SessionID: "sess",
		CSRFToken: "tok",
		UserAgent: "custom-agent",
		AppID:     "936619743392459",
		BaseURL:   "http://localhost:9999/",
		Timeout:   5 * time.Second,
	}
	client := NewClientFromConfig(cfg, logger.NewTestLogger())

	assert.True(t, client.HasSession())
	assert.Equal(t, "http://localhost:9999", client.baseURL)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)

	headers := client.Headers()
	assert.Equal(t, "custom-agent", headers["User-Agent"])
	assert.Equal(t, "936619743392459", headers["X-IG-App-ID"])
	assert.Equal(t, "sessionid=sess; csrftoken=tok", headers["Cookie"])
	assert.Equal(t, "tok", headers["X-CSRFToken"])
}

func TestHeaders(t *testing.T) {
	t.Run("without session", func(t *testing.T) {
		client := NewClient(time.Second, logger.NewTestLogger())
		headers := client.Headers()
		assert.NotContains(t, headers, "Cookie")
		assert.NotContains(t, headers, "X-CSRFToken")
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		client := NewClient(time.Second, logger.NewTestLogger())
		headers := client.Headers()
		headers["X-Injected"] = "yes"
		assert.NotContains(t, client.Headers(), "X-Injected")
	})

	t.Run("custom header", func(t *testing.T) {
		client := NewClient(time.Second, logger.NewTestLogger())
		client.SetHeader("X-Custom-Header", "test-value")
		assert.Equal(t, "test-value", client.Headers()["X-Custom-Header"])
	})
}

func TestGet(t *testing.T) {
	t.Run("sends configured headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
			assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
			assert.Equal(t, "sessionid=abc; csrftoken=xyz", r.Header.Get("Cookie"))
			_, _ = w.Write([]byte("success"))
		}))
		defer server.Close()

		client := NewClient(time.Second, logger.NewTestLogger())
		client.SetSession("abc", "xyz")

		body, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "success", string(body))
	})

	t.Run("network error", func(t *testing.T) {
		log := logger.NewTestLogger()
		client := NewClient(time.Second, log)
		client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		})

		body, err := client.Get(context.Background(), "https://www.instagram.com/")
		assert.Nil(t, body)
		require.Error(t, err)

		var igErr *errors.Error
		require.ErrorAs(t, err, &igErr)
		assert.Equal(t, errors.ErrorTypeNetwork, igErr.Type)
		assert.True(t, log.HasMessage("HTTP request failed"))
	})

	t.Run("cancelled context is returned as is", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewClient(time.Second, logger.NewTestLogger())
		client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		})

		_, err := client.Get(ctx, "https://www.instagram.com/")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, errors.ErrorTypeUnknown, errors.TypeOf(err))
	})
}

func TestCheckResponseStatus(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		retryAfter   string
		expectError  bool
		expectedType errors.ErrorType
		expectedWait time.Duration
	}{
		{name: "ok", statusCode: http.StatusOK},
		{name: "no content", statusCode: http.StatusNoContent},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, expectError: true, expectedType: errors.ErrorTypeAuth},
		{name: "forbidden", statusCode: http.StatusForbidden, expectError: true, expectedType: errors.ErrorTypeAuth},
		{name: "not found", statusCode: http.StatusNotFound, expectError: true, expectedType: errors.ErrorTypeNotFound},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, retryAfter: "30", expectError: true, expectedType: errors.ErrorTypeRateLimit, expectedWait: 30 * time.Second},
		{name: "rate limited without header", statusCode: http.StatusTooManyRequests, expectError: true, expectedType: errors.ErrorTypeRateLimit},
		{name: "server error", statusCode: http.StatusBadGateway, expectError: true, expectedType: errors.ErrorTypeServerError},
		{name: "bad request", statusCode: http.StatusBadRequest, expectError: true, expectedType: errors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(time.Second, logger.NewTestLogger())
			req, err := http.NewRequest(http.MethodGet, "https://www.instagram.com/graphql/query/", nil)
			require.NoError(t, err)

			resp := newResponse(req, tt.statusCode, "")
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}

			err = client.checkResponseStatus(resp)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}

			var igErr *errors.Error
			require.ErrorAs(t, err, &igErr)
			assert.Equal(t, tt.expectedType, igErr.Type)
			assert.Equal(t, tt.statusCode, igErr.Code)
			assert.Equal(t, tt.expectedWait, igErr.RetryAfter)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 10*time.Second, parseRetryAfter("10"))
	assert.Equal(t, 10*time.Second, parseRetryAfter(" 10 "))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("-3"))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestFetchComments(t *testing.T) {
	t.Run("follows the cursor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, GraphQLEndpoint, r.URL.Path)
			assert.Equal(t, CommentsQueryHash, r.URL.Query().Get("query_hash"))

			var vars commentsVariables
			require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("variables")), &vars))
			assert.Equal(t, "C0dE123", vars.Shortcode)

			if vars.After == "cursor-1" {
				_, _ = w.Write([]byte(pageTwoJSON))
				return
			}
			_, _ = w.Write([]byte(pageOneJSON))
		}))
		defer server.Close()

		client := NewClient(time.Second, logger.NewTestLogger())
		client.SetBaseURL(server.URL)

		page, err := client.FetchComments(context.Background(), "C0dE123", "", 50)
		require.NoError(t, err)
		require.Len(t, page.Records, 2)
		assert.True(t, page.HasNextPage)
		assert.Equal(t, "cursor-1", page.EndCursor)
		assert.Equal(t, 3, page.Count)
		assert.Equal(t, comments.Record{
			Username:  "alice",
			Comment:   "first!",
			Timestamp: comments.EpochTimestamp(1700000000),
			Likes:     4,
			Verified:  true,
		}, page.Records[0])

		page, err = client.FetchComments(context.Background(), "C0dE123", page.EndCursor, 50)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.Equal(t, "carol", page.Records[0].Username)
		assert.False(t, page.HasNextPage)
	})

	t.Run("login wall", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"requires_to_login": true}`))
		}))
		defer server.Close()

		client := NewClient(time.Second, logger.NewTestLogger())
		client.SetBaseURL(server.URL)

		_, err := client.FetchComments(context.Background(), "C0dE123", "", 50)
		assert.True(t, errors.Is(err, errors.ErrorTypeAuth))
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		log := logger.NewTestLogger()
		client := NewClient(time.Second, log)
		client.SetBaseURL(server.URL)

		_, err := client.FetchComments(context.Background(), "C0dE123", "", 50)
		var igErr *errors.Error
		require.ErrorAs(t, err, &igErr)
		assert.Equal(t, errors.ErrorTypeRateLimit, igErr.Type)
		assert.Equal(t, 7*time.Second, igErr.RetryAfter)
		assert.True(t, log.HasMessage("Rate limit reached, backing off"))
	})

	t.Run("garbage body logs a preview", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("<html>"), 100))
		}))
		defer server.Close()

		log := logger.NewTestLogger()
		client := NewClient(time.Second, log)
		client.SetBaseURL(server.URL)

		_, err := client.FetchComments(context.Background(), "C0dE123", "", 50)
		assert.True(t, errors.Is(err, errors.ErrorTypeParsing))

		msgs := log.GetMessagesByLevel("ERROR")
		require.NotEmpty(t, msgs)
		preview, ok := msgs[len(msgs)-1].Fields["body_preview"].(string)
		require.True(t, ok)
		assert.Len(t, preview, maxBodyPreview+len("..."))
	})
}

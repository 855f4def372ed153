package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const requestTimeout = 30 * time.Second

// Config configures a Client. Exactly one of Token or User+Password should
// be set; both HTTP Basic and bearer auth are supported.
type Config struct {
	BaseURL  string
	Token    string
	User     string
	Password string
}

// Client is the typed façade over the WhatsApp gateway's HTTP API.
// It does not retry; the Processor owns retry policy.
type Client struct {
	http *resty.Client
}

// New builds a Client with the gateway's base URL and auth baked in.
func New(cfg Config) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout)

	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	} else if cfg.User != "" {
		c.SetBasicAuth(cfg.User, cfg.Password)
	}

	return &Client{http: c}
}

// ListChats fetches the gateway's full chat list.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	var out []Chat
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/chats")
	if err := classify("list_chats", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchMessages returns messages strictly newer than since (if non-empty),
// oldest first, capped at limit.
func (c *Client) FetchMessages(ctx context.Context, chatJID, since string, limit int) ([]Message, error) {
	var out []Message
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("jid", chatJID).
		SetQueryParam("limit", fmt.Sprintf("%d", limit))
	if since != "" {
		req.SetQueryParam("since", since)
	}
	resp, err := req.Get("/chats/{jid}/messages")
	if err := classify("fetch_messages", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// SendText posts a text message to a chat and returns the gateway-assigned
// message id.
func (c *Client) SendText(ctx context.Context, chatJID, text string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("jid", chatJID).
		SetBody(map[string]string{"text": text}).
		SetResult(&out).
		Post("/chats/{jid}/send")
	if err := classify("send_text", resp, err); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DownloadMedia fetches the raw bytes of a message's media payload plus its
// Content-Type, as declared by the gateway.
func (c *Client) DownloadMedia(ctx context.Context, messageID string) ([]byte, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", messageID).
		Get("/messages/{id}/download")
	if err := classify("download_media", resp, err); err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// classify turns a resty response/transport error into a typed gateway
// Error, using the package's kind taxonomy.
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return newErr(op, Network, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return newErr(op, Unauthorized, fmt.Errorf("status %d", resp.StatusCode()))
	case http.StatusNotFound:
		return newErr(op, NotFound, fmt.Errorf("status %d", resp.StatusCode()))
	case http.StatusTooManyRequests:
		return newErr(op, RateLimited, fmt.Errorf("status %d", resp.StatusCode()))
	default:
		if resp.StatusCode() >= 500 {
			return newErr(op, Server, fmt.Errorf("status %d", resp.StatusCode()))
		}
		return newErr(op, Malformed, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
}

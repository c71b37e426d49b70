package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/go-resty/resty/v2"
)

var ErrEmptySnapshot = errors.New("empty snapshot")

type Client struct {
	restyClient *resty.Client
	token       string
	cookie      *http.Cookie
}

func NewRestyClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Source.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "irpreview/1").
		SetHeader("Accept", "image/jpeg")

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	restyClient.SetTransport(transport)

	c := &Client{
		restyClient: restyClient,
		token:       cfg.Authorization.Token,
	}

	cookieName, cookieValue := parseCookie(cfg.Authorization.Cookie)
	if cookieValue != "" {
		c.cookie = &http.Cookie{
			Name:  cookieName,
			Value: cookieValue,
		}
	}

	return c
}

// GetSnapshot fetches one still image from url. Requests are built per call
// so concurrent readers never share a resty.Request.
func (c *Client) GetSnapshot(ctx context.Context, url string) ([]byte, error) {
	req := c.restyClient.R().SetContext(ctx)
	if c.token != "" {
		req.SetHeader("Authorization", c.token)
	}
	if c.cookie != nil {
		req.SetCookie(c.cookie)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request snapshot: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status())
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, ErrEmptySnapshot
	}
	return body, nil
}

func parseCookie(s string) (name, value string) {
	if s == "" {
		return "", ""
	}
	if strings.Contains(s, "=") {
		parts := strings.SplitN(s, "=", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "SessaoId", s
}

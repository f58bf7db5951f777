package delivery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/markdave123-py/mindease/internal/core"
)

const whatsappPrefix = "whatsapp:"

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	// From is the sender's WhatsApp number, with or without the whatsapp: prefix.
	From string
	// BaseURL points requests at another host. Empty means api.twilio.com.
	BaseURL string
	Timeout time.Duration
}

// TwilioSink sends WhatsApp messages through Twilio's Messages API.
type TwilioSink struct {
	cfg TwilioConfig
	api *openapi.ApiService
}

var _ core.DeliverySink = (*TwilioSink)(nil)

func NewTwilioSink(cfg TwilioConfig) (*TwilioSink, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("twilio account sid, auth token and sender number are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var transport http.RoundTripper = &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   5,
	}
	if cfg.BaseURL != "" {
		target, err := url.Parse(cfg.BaseURL)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("twilio: invalid base url %q", cfg.BaseURL)
		}
		transport = &rehost{target: target, next: transport}
	}

	httpClient := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}
	httpClient.SetAccountSid(cfg.AccountSID)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{Client: httpClient})
	return &TwilioSink{cfg: cfg, api: rest.Api}, nil
}

// Send creates one message. Any non-2xx response is an error.
func (s *TwilioSink) Send(ctx context.Context, msg core.OutboundMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("twilio: recipient is empty")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}

	params := &openapi.CreateMessageParams{}
	params.SetPathAccountSid(s.cfg.AccountSID)
	params.SetTo(whatsappAddress(msg.To))
	params.SetFrom(whatsappAddress(from))
	params.SetBody(msg.Body)

	if _, err := s.api.CreateMessage(params); err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("twilio: status %d: code %d: %s", restErr.Status, restErr.Code, restErr.Message)
		}
		return fmt.Errorf("twilio: send: %w", err)
	}
	return nil
}

// rehost sends every request to target, keeping path and query.
type rehost struct {
	target *url.URL
	next   http.RoundTripper
}

func (r *rehost) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.target.Scheme
	out.URL.Host = r.target.Host
	out.Host = r.target.Host
	return r.next.RoundTrip(out)
}

func whatsappAddress(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}

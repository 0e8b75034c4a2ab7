package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/biolab/datalab/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

const graphScope = "https://graph.microsoft.com/.default"

// Message is an outgoing email
type Message struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
	HTML    bool     `json:"html"`
}

// GraphClient sends mail as a fixed sender through Microsoft Graph
type GraphClient struct {
	httpClient *http.Client
	baseURL    string
	sender     string
	logger     *zap.Logger
}

// Option configures a GraphClient
type Option func(*options)

type options struct {
	tokenURL   string
	httpClient *http.Client
}

// WithTokenURL overrides the Azure AD token endpoint
func WithTokenURL(tokenURL string) Option {
	return func(o *options) { o.tokenURL = tokenURL }
}

// WithHTTPClient sets the transport used for both token and Graph calls
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// NewGraphClient creates a client authenticated with the client-credentials grant
func NewGraphClient(ctx context.Context, cfg config.GraphConfig, logger *zap.Logger, opts ...Option) *GraphClient {
	o := options{tokenURL: microsoft.AzureADEndpoint(cfg.TenantID).TokenURL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     o.tokenURL,
		Scopes:       []string{graphScope},
	}

	return &GraphClient{
		httpClient: creds.Client(ctx),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		sender:     cfg.Sender,
		logger:     logger,
	}
}

type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Message struct {
		Subject string `json:"subject"`
		Body    struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []graphRecipient `json:"toRecipients"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

func buildPayload(m Message) graphMessage {
	var payload graphMessage
	payload.Message.Subject = m.Subject
	payload.Message.Body.Content = m.Body
	payload.Message.Body.ContentType = "Text"
	if m.HTML {
		payload.Message.Body.ContentType = "HTML"
	}
	for _, address := range m.To {
		var r graphRecipient
		r.EmailAddress.Address = address
		payload.Message.ToRecipients = append(payload.Message.ToRecipients, r)
	}
	payload.SaveToSentItems = true
	return payload
}

// Send delivers m. Graph answers 202 Accepted on success.
func (g *GraphClient) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(buildPayload(m))
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", g.baseURL, url.PathEscape(g.sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("graph sendMail returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	g.logger.Info("mail sent", zap.Int("recipients", len(m.To)), zap.String("subject", m.Subject))
	return nil
}

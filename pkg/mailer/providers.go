package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

type ResendProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewResendProvider(apiKey, apiURL string, client *http.Client) *ResendProvider {
	if apiURL == "" {
		apiURL = ResendAPIURL
	}
	return &ResendProvider{apiKey: apiKey, apiURL: apiURL, client: httpClient(client)}
}

func (p *ResendProvider) Name() string { return ProviderResend }

func (p *ResendProvider) Send(ctx context.Context, msg *Message) (string, error) {
	payload := map[string]interface{}{
		"from":    msg.From,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.Text != "" {
		payload["text"] = msg.Text
	}

	body, _, err := post(ctx, p.client, ProviderResend, p.apiKey, p.apiURL+pathResendEmails, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", errProviderRequest(ProviderResend, err)
	}
	return result.ID, nil
}

type SendGridProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewSendGridProvider(apiKey, apiURL string, client *http.Client) *SendGridProvider {
	if apiURL == "" {
		apiURL = SendGridAPIURL
	}
	return &SendGridProvider{apiKey: apiKey, apiURL: apiURL, client: httpClient(client)}
}

func (p *SendGridProvider) Name() string { return ProviderSendGrid }

func (p *SendGridProvider) Send(ctx context.Context, msg *Message) (string, error) {
	to := make([]map[string]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = map[string]string{"email": addr}
	}
	content := []map[string]string{}
	// SendGrid requires text/plain before text/html.
	if msg.Text != "" {
		content = append(content, map[string]string{"type": mimeTextPlain, "value": msg.Text})
	}
	content = append(content, map[string]string{"type": mimeTextHTML, "value": msg.HTML})

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{{"to": to}},
		"from":             map[string]string{"email": msg.From},
		"subject":          msg.Subject,
		"content":          content,
	}

	_, header, err := post(ctx, p.client, ProviderSendGrid, p.apiKey, p.apiURL+pathSendGridMailSend, payload)
	if err != nil {
		return "", err
	}
	return header.Get(headerMessageID), nil
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

func post(ctx context.Context, client *http.Client, provider, apiKey, url string, payload interface{}) ([]byte, http.Header, error) {
	if apiKey == "" {
		return nil, nil, ErrAPIKeyRequired
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, errProviderRequest(provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, errProviderRequest(provider, err)
	}
	req.Header.Set(headerAuthorization, authBearerPrefix+apiKey)
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, errProviderRequest(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errProviderRequest(provider, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}
		return nil, nil, errProviderStatus(provider, resp.StatusCode, string(body))
	}
	return body, resp.Header, nil
}

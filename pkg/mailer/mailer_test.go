package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	err   error
	calls int
	last  *Message
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Send(ctx context.Context, msg *Message) (string, error) {
	p.calls++
	p.last = msg
	if p.err != nil {
		return "", p.err
	}
	return p.name + "-id", nil
}

func validMessage() *Message {
	return &Message{
		To:      []string{"erin@lab.example"},
		Subject: "Project approved",
		HTML:    "<p>approved</p>",
	}
}

func TestNewService(t *testing.T) {
	_, err := NewService("not an address", &stubProvider{name: "a"})
	assert.ErrorIs(t, err, ErrInvalidFromAddress)

	_, err = NewService("lab@lab.example", nil)
	assert.ErrorIs(t, err, ErrNoProviders)

	s, err := NewService("lab@lab.example", &stubProvider{name: "a"}, nil, &stubProvider{name: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Providers())
}

func TestService_FailsOver(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	second := &stubProvider{name: "second"}
	s, err := NewService("lab@lab.example", first, second)
	require.NoError(t, err)

	id, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, "second-id", id)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, "lab@lab.example", second.last.From)
}

func TestService_AllProvidersFail(t *testing.T) {
	s, err := NewService("lab@lab.example",
		&stubProvider{name: "a", err: errors.New("a down")},
		&stubProvider{name: "b", err: errors.New("b down")},
	)
	require.NoError(t, err)

	_, err = s.Send(context.Background(), validMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Message)
	}{
		{"no recipients", func(m *Message) { m.To = nil }},
		{"bad recipient", func(m *Message) { m.To = []string{"nope"} }},
		{"bad sender", func(m *Message) { m.From = "nope" }},
		{"no subject", func(m *Message) { m.Subject = "  " }},
		{"no body", func(m *Message) { m.HTML = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			m.From = "lab@lab.example"
			tt.mutate(m)
			assert.Error(t, Validate(m))
		})
	}
}

func TestResendProvider_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	msg := validMessage()
	msg.From = "lab@lab.example"
	id, err := NewResendProvider("re_key", srv.URL, srv.Client()).Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "msg_1", id)
	assert.Equal(t, "Project approved", got["subject"])
}

func TestSendGridProvider_Send(t *testing.T) {
	var got struct {
		Content []map[string]string `json:"content"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Message-Id", "sg_1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	msg := validMessage()
	msg.From = "lab@lab.example"
	msg.Text = "approved"
	id, err := NewSendGridProvider("sg_key", srv.URL, srv.Client()).Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "sg_1", id)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0]["type"])
}

func TestProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer srv.Close()

	_, err := NewResendProvider("re_key", srv.URL, srv.Client()).Send(context.Background(), validMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Less(t, len(err.Error()), 700)

	_, err = NewResendProvider("", srv.URL, srv.Client()).Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestTemplate_Render(t *testing.T) {
	tmpl := MustTemplate("status",
		"Project {{.Title}}\r\nBcc: evil@example.com",
		"<p>{{.Title}}</p>",
		"{{.Title}}",
	)

	msg, err := tmpl.Render(map[string]string{"Title": "<b>Rig</b>"}, "erin@lab.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"erin@lab.example"}, msg.To)
	assert.NotContains(t, msg.Subject, "\n")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Rig&lt;/b&gt;")
	assert.Equal(t, "<b>Rig</b>", msg.Text)
}

package sender_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalixity/campaign-backend/internal/config"
	apperrors "github.com/scalixity/campaign-backend/internal/errors"
	"github.com/scalixity/campaign-backend/internal/sender"
)

func testConfig(baseURL string) config.WhatsApp {
	return config.WhatsApp{
		AccessToken:   "secret-token",
		PhoneNumberID: "12345",
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		RatePerSec:    1000,
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := sender.NewClient(config.WhatsApp{}, zerolog.Nop())
	require.Error(t, err)
	var fatal *apperrors.ErrFatalConfiguration
	assert.ErrorAs(t, err, &fatal)
}

func TestSendTextMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ok, err := c.Send(context.Background(), "+1000", "Hi Ann")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "+1000", got["to"])
	assert.Equal(t, "text", got["type"])
	text := got["text"].(map[string]interface{})
	assert.Equal(t, "Hi Ann", text["body"])
}

func TestSendTemplateMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ok, err := c.SendTemplate(context.Background(), "+1000", "spring_sale", "")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "template", got["type"])
	tmpl := got["template"].(map[string]interface{})
	assert.Equal(t, "spring_sale", tmpl["name"])
	lang := tmpl["language"].(map[string]interface{})
	assert.Equal(t, "en_US", lang["code"])
}

func TestSendRejectionIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid recipient"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ok, err := c.Send(context.Background(), "+1000", "Hi")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendUnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ok, err := c.Send(context.Background(), "+1000", "Hi")
	assert.False(t, ok)
	var fatal *apperrors.ErrFatalConfiguration
	require.ErrorAs(t, err, &fatal)
}

func TestSendNetworkFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ok, err := c.Send(context.Background(), "+1000", "Hi")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"12345"}`))
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	code, body, err := c.VerifyAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":"12345"}`, body)
}

func TestTemplateSenderIgnoresBody(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := sender.NewClient(testConfig(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	ts := sender.TemplateSender{Client: c, Name: "hello_world", Lang: "en"}
	ok, err := ts.Send(context.Background(), "+1000", "this body is ignored")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "template", got["type"])
	assert.Nil(t, got["text"])
}

func TestUnconfiguredSenderFailsFast(t *testing.T) {
	ok, err := sender.Unconfigured{}.Send(context.Background(), "+1", "hi")
	assert.False(t, ok)
	var fatal *apperrors.ErrFatalConfiguration
	assert.ErrorAs(t, err, &fatal)
}

func TestMockRecordsCalls(t *testing.T) {
	m := &sender.Mock{}
	ok, err := m.Send(context.Background(), "+1", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, sender.Call{Phone: "+1", Message: "a"}, m.Calls()[0])
}

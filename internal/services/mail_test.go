package services

import (
	"net/smtp"
	"rewear/internal/config"
	"rewear/internal/logger"
	"rewear/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendExchangeContactsMailsBothParties(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "noreply@rewear.test"}
	s := NewMailService(cfg, logger.Discard())

	var mu sync.Mutex
	sent := map[string]string{}
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "smtp.test:587", addr)
		assert.Equal(t, cfg.From, from)
		sent[to[0]] = string(msg)
		return nil
	}

	requester := models.Contact{Name: "Ann", Email: "ann@x.io"}
	owner := models.Contact{Name: "Bob", Email: "bob@x.io", Location: "Oslo"}
	s.SendExchangeContacts("Blue coat", requester, owner)
	s.Wait()

	require.Len(t, sent, 2)
	assert.Contains(t, sent["ann@x.io"], "bob@x.io")
	assert.Contains(t, sent["ann@x.io"], "Oslo")
	assert.Contains(t, sent["bob@x.io"], "ann@x.io")
	assert.Contains(t, sent["bob@x.io"], "Subject: Your ReWear exchange: Blue coat")
}

func TestMailDisabledWithoutSettings(t *testing.T) {
	s := NewMailService(config.SMTPConfig{}, logger.Discard())
	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	s.SendExchangeContacts("x", models.Contact{Email: "a@x.io"}, models.Contact{Email: "b@x.io"})
	s.Wait()
	assert.False(t, called)
}

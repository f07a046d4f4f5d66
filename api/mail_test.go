package main

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

func TestWelcomeMail(t *testing.T) {
	m := newMailer("smtp.example.com", 587, "user", "pass", "LifeStrat <no-reply@lifestrat.local>")
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/user_welcome.tmpl")
	require.NoError(t, err)

	msg, err := m.compose("alice@example.com", tmpl, &data.User{ID: 7, Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Welcome to LifeStrat!"}, msg.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Hi alice,")
	assert.Contains(t, raw.String(), "text/html")
}

func TestMailerDisabledWithoutHost(t *testing.T) {
	app := newApplication(testConfig(), storage.NewMemory(), zap.NewNop())
	assert.Nil(t, app.mailer)

	cfg := testConfig()
	cfg.smtp.host = "smtp.example.com"
	app = newApplication(cfg, storage.NewMemory(), zap.NewNop())
	assert.NotNil(t, app.mailer)
}

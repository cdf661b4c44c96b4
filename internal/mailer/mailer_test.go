package mailer

import (
	"bytes"
	"context"
	"mime"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

var testFrom = mail.Address{Name: "Escuela", Address: "no-reply@escuela.example"}

func testMessage() Message {
	return Message{
		To:       []mail.Address{{Name: "Ana Pérez", Address: "ana@example.com"}},
		Bcc:      []mail.Address{{Address: "audit@example.com"}},
		Subject:  "Nueva reunión",
		TextBody: "Hola Ana",
		HTMLBody: "<p>Hola Ana</p>",
	}
}

func TestConsoleSenderWritesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sender := NewConsoleSender(&buf, testFrom)

	require.NoError(t, sender.Send(context.Background(), testMessage()))

	out := buf.String()
	assert.Contains(t, out, "From: ")
	assert.Contains(t, out, "no-reply@escuela.example")
	assert.Contains(t, out, "<ana@example.com>")
	assert.Contains(t, out, "Bcc: <audit@example.com>")
	assert.Contains(t, out, "Subject: Nueva reunión")
	assert.Contains(t, out, "Hola Ana")
}

func TestSendersRejectMessagesWithoutRecipients(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.To, msg.Bcc = nil, nil

	assert.ErrorIs(t, NewConsoleSender(&bytes.Buffer{}, testFrom).Send(context.Background(), msg), ErrNoRecipients)
	assert.ErrorIs(t, NewSendGridSender("key", testFrom).Send(context.Background(), msg), ErrNoRecipients)
	assert.ErrorIs(t, NewSMTPSender(SMTPConfig{Host: "localhost", From: testFrom}).Send(context.Background(), msg), ErrNoRecipients)
}

func TestConsoleSenderHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewConsoleSender(&buf, testFrom).Send(ctx, testMessage())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestPrepareSendGrid(t *testing.T) {
	t.Parallel()

	msg := withDefaultFrom(testMessage(), testFrom)
	sg := prepareSendGrid(msg)

	require.Len(t, sg.Personalizations, 1)
	p := sg.Personalizations[0]
	require.Len(t, p.To, 1)
	assert.Equal(t, "ana@example.com", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	assert.Equal(t, "Nueva reunión", p.Subject)
	assert.Equal(t, "no-reply@escuela.example", sg.From.Address)
	require.Len(t, sg.Content, 2)
	assert.Equal(t, "text/plain", sg.Content[0].Type)
	assert.Equal(t, "text/html", sg.Content[1].Type)
}

func TestSMTPBuildMsg(t *testing.T) {
	t.Parallel()

	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: testFrom})
	m, err := sender.buildMsg(testMessage())
	require.NoError(t, err)

	subject := m.GetGenHeader(gomail.HeaderSubject)
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	assert.Equal(t, "Nueva reunión", decoded)
	to := m.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "ana@example.com")
	from := m.GetFromString()
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "no-reply@escuela.example")
}

func TestSMTPBuildMsgRejectsInvalidAddress(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.To = []mail.Address{{Address: "not-an-address"}}

	_, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: testFrom}).buildMsg(msg)
	assert.Error(t, err)
}

func TestParseAddressList(t *testing.T) {
	t.Parallel()

	addrs, err := ParseAddressList([]string{"Dirección <direccion@escuela.example>", "", "rrhh@escuela.example"})
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, "Dirección", addrs[0].Name)
	assert.Equal(t, "rrhh@escuela.example", addrs[1].Address)

	_, err = ParseAddressList([]string{"broken"})
	assert.Error(t, err)
}

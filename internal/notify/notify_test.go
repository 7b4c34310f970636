package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/k1networth/orderflow/internal/notify"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m notify.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestAssociationTemplateVariesByService(t *testing.T) {
	c, err := notify.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	subject, body, err := c.Render(notify.TemplateAssociation, map[string]string{"Nome": "Ana", "Servico": "Assinatura"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Sua associação foi atualizada com sucesso" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Olá Ana") || !strings.Contains(body, "sua Assinatura foi criada") {
		t.Fatalf("unexpected body %q", body)
	}

	_, body, err = c.Render(notify.TemplateAssociation, map[string]string{"Nome": "Ana", "Servico": "Upgrade"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "seu/sua Upgrade da assinatura foi realizado") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestStreamingTemplateListsVideos(t *testing.T) {
	c, err := notify.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	data := map[string]any{
		"Nome": "Bia",
		"Videos": []map[string]string{
			{"Nome": "Aula 1", "Link": "https://videos.example/1"},
			{"Nome": "Aula 2", "Link": "https://videos.example/2"},
		},
	}
	_, body, err := c.Render(notify.TemplateStreaming, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Nome: Aula 1", "Link: https://videos.example/2"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
}

func TestRenderMissingKeyFails(t *testing.T) {
	c, err := notify.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, _, err := c.Render(notify.TemplateAssociation, map[string]string{"Servico": "Upgrade"}); err == nil {
		t.Fatalf("expected error for missing Nome")
	}
	if _, _, err := c.Render("invoice", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestNotifierSendsRenderedMessage(t *testing.T) {
	c, _ := notify.LoadCatalog()
	s := &recordingSender{}
	n := &notify.Notifier{Sender: s, Catalog: c, Log: testLogger()}

	err := n.Notify(context.Background(), notify.TemplateAssociation, "Ana", "ana@example.com", map[string]string{"Nome": "Ana", "Servico": "Ativação"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].ToAddr != "ana@example.com" {
		t.Fatalf("unexpected sent messages %+v", s.sent)
	}
}

func TestNotifierPropagatesSendFailure(t *testing.T) {
	c, _ := notify.LoadCatalog()
	s := &recordingSender{err: errs.E(errs.ErrNotification, "notify.send", errors.New("dial tcp: refused"))}
	n := &notify.Notifier{Sender: s, Catalog: c, Log: testLogger()}

	err := n.Notify(context.Background(), notify.TemplateAssociation, "Ana", "ana@example.com", map[string]string{"Nome": "Ana", "Servico": "Upgrade"})
	if !errors.Is(err, errs.ErrNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}
}

func TestSMTPSenderUnreachable(t *testing.T) {
	s := notify.NewSMTPSender(notify.SMTPConfig{Host: "127.0.0.1", Port: 1})
	err := s.Send(context.Background(), notify.Message{ToName: "Ana", ToAddr: "ana@example.com", Subject: "x", Body: "y"})
	if !errors.Is(err, errs.ErrNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}
}

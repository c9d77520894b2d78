package worker

// email_worker.go
// Processes email jobs from QueueEmail. Today the only producer is the
// recaudacion notice queued by Dispatcher.NotificarRecaudacion.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tiendapos/internal/dto"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sender delivers one message. infra.Mailer satisfies it.
type Sender interface {
	Send(to []string, subject, body string) error
}

// EmailWorker processes jobs from QueueEmail.
type EmailWorker struct {
	sender Sender
}

// NewEmailWorker creates an EmailWorker over the given sender.
func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

// Process sends the message; it is registered as the JobEmail handler.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}
	if len(payload.To) == 0 {
		return fmt.Errorf("%w: sin destinatarios", ErrPayloadInvalido)
	}

	if err := w.sender.Send(payload.To, payload.Subject, payload.Body); err != nil {
		return err
	}
	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: enviado")
	return nil
}

// RecaudacionEmail renders the notice for a cash pickup.
func RecaudacionEmail(to string, rec dto.RecaudacionResponse) EmailJobPayload {
	var b strings.Builder
	fmt.Fprintf(&b, "Se registro una recaudacion de $%s.\n\n", rec.Monto.StringFixed(2))
	fmt.Fprintf(&b, "Recaudacion: #%d\n", rec.ID)
	fmt.Fprintf(&b, "Caja: #%d\n", rec.CajaID)
	fmt.Fprintf(&b, "Local: %d\n", rec.LocalID)
	fmt.Fprintf(&b, "Usuario: %d\n", rec.UsuarioID)
	fmt.Fprintf(&b, "Fecha: %s\n", rec.FechaRecaudacion.Format("02/01/2006 15:04"))
	if rec.Observaciones != nil && *rec.Observaciones != "" {
		fmt.Fprintf(&b, "Observaciones: %s\n", *rec.Observaciones)
	}
	return EmailJobPayload{
		To:      []string{to},
		Subject: fmt.Sprintf("Recaudacion #%d - local %d", rec.ID, rec.LocalID),
		Body:    b.String(),
	}
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tiendapos/internal/dto"
	"tiendapos/internal/infra"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []EmailJobPayload
	err  error
}

func (f *fakeSender) Send(to []string, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, EmailJobPayload{To: to, Subject: subject, Body: body})
	return nil
}

func encodeJob(t *testing.T, jobType string, payload any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob_EmailDelivered(t *testing.T) {
	sender := &fakeSender{}
	handlers := WorkerHandlers{JobEmail: NewEmailWorker(sender).Process}

	raw := encodeJob(t, JobEmail, EmailJobPayload{To: []string{"admin@tienda.test"}, Subject: "hola", Body: "cuerpo"})
	job, attempts, err := processJob(context.Background(), handlers, raw)

	require.NoError(t, err)
	assert.Equal(t, JobEmail, job.Type)
	assert.Equal(t, 1, attempts)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hola", sender.sent[0].Subject)
}

func TestProcessJob_InvalidPayloadIsNotRetried(t *testing.T) {
	sender := &fakeSender{}
	handlers := WorkerHandlers{JobEmail: NewEmailWorker(sender).Process}

	raw := encodeJob(t, JobEmail, EmailJobPayload{Subject: "sin destinatarios"})
	_, attempts, err := processJob(context.Background(), handlers, raw)

	assert.ErrorIs(t, err, ErrPayloadInvalido)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sender.sent)
}

func TestProcessJob_UnknownType(t *testing.T) {
	_, attempts, err := processJob(context.Background(), WorkerHandlers{}, encodeJob(t, "facturacion", map[string]int{"a": 1}))
	assert.Error(t, err)
	assert.Zero(t, attempts)
}

func TestProcessJob_MalformedEnvelope(t *testing.T) {
	job, _, err := processJob(context.Background(), WorkerHandlers{}, "{no json")
	assert.ErrorIs(t, err, ErrPayloadInvalido)
	assert.Equal(t, "desconocido", job.Type)
}

func TestProcessJob_RetriesTransientFailure(t *testing.T) {
	calls := 0
	handlers := WorkerHandlers{"flaky": func(context.Context, json.RawMessage) error {
		calls++
		if calls == 1 {
			return errors.New("timeout")
		}
		return nil
	}}

	_, attempts, err := processJob(context.Background(), handlers, encodeJob(t, "flaky", struct{}{}))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRecaudacionEmail(t *testing.T) {
	obs := "cierre de turno"
	rec := dto.RecaudacionResponse{
		ID: 9, CajaID: 4, LocalID: 2, UsuarioID: 7,
		Monto:            decimal.RequireFromString("1500.5"),
		FechaRecaudacion: time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC),
		Observaciones:    &obs,
	}
	p := RecaudacionEmail("jefe@tienda.test", rec)

	assert.Equal(t, []string{"jefe@tienda.test"}, p.To)
	assert.Equal(t, "Recaudacion #9 - local 2", p.Subject)
	assert.Contains(t, p.Body, "$1500.50")
	assert.Contains(t, p.Body, "Caja: #4")
	assert.Contains(t, p.Body, "04/05/2026 18:30")
	assert.Contains(t, p.Body, "cierre de turno")
}

func TestDispatcher_NotificarRecaudacionDisabled(t *testing.T) {
	// No address configured: the redis client is never touched.
	d := NewDispatcher(nil, "")
	assert.NotPanics(t, func() { d.NotificarRecaudacion(dto.RecaudacionResponse{ID: 1}) })
}

type fakeConciliador struct{ calls int }

func (f *fakeConciliador) ConciliarTodos(context.Context) (int, error) {
	f.calls++
	return 2, nil
}

type fakeLocker struct {
	err      error
	released bool
}

func (f *fakeLocker) Obtain(context.Context, string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	return func() { f.released = true }, nil
}

func TestBarrerPendientes_SkipsWhenLockHeld(t *testing.T) {
	c := &fakeConciliador{}
	barrerPendientes(context.Background(), ReconciliacionCronConfig{Conciliador: c, Locker: &fakeLocker{err: infra.ErrLockOcupado}})
	assert.Zero(t, c.calls)
}

func TestBarrerPendientes_RunsAndReleases(t *testing.T) {
	c := &fakeConciliador{}
	l := &fakeLocker{}
	barrerPendientes(context.Background(), ReconciliacionCronConfig{Conciliador: c, Locker: l})
	assert.Equal(t, 1, c.calls)
	assert.True(t, l.released)
}

package service

import (
	"context"
	"errors"
	"testing"

	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	err      error
	sent     int
	lastTo   string
	lastSubj string
	lastBody string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	f.lastTo = to
	f.lastSubj = subject
	f.lastBody = body
	return nil
}

func newTestReportService(t *testing.T, mailer *fakeMailer) (ReportService, *creditService, *store.Store) {
	t.Helper()
	kv := store.NewMemoryKeyValue()
	st := store.NewStore(kv, nil)
	reg := store.NewPromoRegistry(kv, nil)
	credits := NewCreditService(st, reg, nil).(*creditService)
	return NewReportService(st, credits, mailer, nil), credits, st
}

func TestSendReportSpendsCreditsAndMails(t *testing.T) {
	mailer := &fakeMailer{}
	svc, credits, st := newTestReportService(t, mailer)
	ctx := context.Background()

	_, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, func(d *domain.UserData) {
		d.Profile.Name = "Alex"
		d.Plan = &domain.GeneratedPlan{TimelineWeeks: 8}
		d.Progress.CurrentWeek = 3
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendReport(ctx, "u1", "alex@example.com"))

	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, "alex@example.com", mailer.lastTo)
	assert.Contains(t, mailer.lastBody, "Alex")
	assert.Contains(t, mailer.lastBody, "week 3 of 8")

	drain(credits)
	state, err := credits.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits-domain.CostSendReport, state.Credits)
}

func TestSendReportRefundsOnDeliveryFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc, credits, st := newTestReportService(t, mailer)
	ctx := context.Background()

	_, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)

	err = svc.SendReport(ctx, "u1", "alex@example.com")
	assert.ErrorIs(t, err, ErrReportDelivery)

	drain(credits)
	state, err := credits.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, state.Credits)
}

func TestSendReportValidation(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _, st := newTestReportService(t, mailer)
	ctx := context.Background()

	err := svc.SendReport(ctx, "u1", "")
	assert.ErrorIs(t, err, ErrNoRecipient)

	err = svc.SendReport(ctx, "u1", "alex@example.com")
	assert.ErrorIs(t, err, ErrNoUserData)

	_, err = st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, func(d *domain.UserData) {
		d.Profile.Credits = 0
	})
	require.NoError(t, err)

	err = svc.SendReport(ctx, "u1", "alex@example.com")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 0, mailer.sent)
}

package service

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/mail"
	"ascend/physique-app/internal/store"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrReportDelivery = errors.New("failed to deliver progress report")
	ErrNoRecipient    = errors.New("no recipient email on record")
)

// ReportService emails a plain-text progress summary to the user.
type ReportService interface {
	// SendReport renders the current record into a summary and mails it to
	// the given address. Costs CostSendReport credits.
	SendReport(ctx context.Context, userID, email string) error
}

type reportService struct {
	store   *store.Store
	credits CreditService
	mailer  mail.Mailer
	logger  *zap.Logger
}

// NewReportService creates a new reportService.
func NewReportService(st *store.Store, credits CreditService, mailer mail.Mailer, logger *zap.Logger) ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportService{store: st, credits: credits, mailer: mailer, logger: logger}
}

func (s *reportService) SendReport(ctx context.Context, userID, email string) error {
	if email == "" {
		return ErrNoRecipient
	}

	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNoUserData
	}

	ok, err := s.credits.SpendCredits(ctx, userID, domain.CostSendReport, "Send Report")
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientCredits
	}

	body := renderReport(data)
	if err := s.mailer.Send(email, "Your ASCEND Progress Report", body); err != nil {
		s.logger.Error("report delivery failed", zap.String("userID", userID), zap.Error(err))
		if refundErr := s.credits.RefundCredits(ctx, userID, domain.CostSendReport, "Send Report refund"); refundErr != nil {
			s.logger.Error("failed to refund report cost", zap.String("userID", userID), zap.Error(refundErr))
		}
		return ErrReportDelivery
	}
	return nil
}

func renderReport(data *domain.UserData) string {
	var b strings.Builder

	name := data.Profile.Name
	if name == "" {
		name = "Athlete"
	}
	fmt.Fprintf(&b, "ASCEND Progress Report\n\n")
	fmt.Fprintf(&b, "Hello %s,\n\n", name)

	if data.Plan != nil {
		fmt.Fprintf(&b, "Protocol: week %d of %d\n", data.Progress.CurrentWeek, data.Plan.TimelineWeeks)
		fmt.Fprintf(&b, "Weeks completed: %d\n", len(data.Progress.CompletedWeeks))
		fmt.Fprintf(&b, "Workouts logged: %d\n", countDone(data.Progress.CompletedExercises))
		fmt.Fprintf(&b, "Meals logged: %d\n\n", countDone(data.Progress.CompletedNutrition))
	} else {
		b.WriteString("No active protocol yet. Generate one in the app to get started.\n\n")
	}

	fmt.Fprintf(&b, "Body fat: %.1f%% (target %.1f%%)\n", data.CurrentBody.BodyFat, data.TargetBody.BodyFat)

	deltas := domain.ComputeDeltas(data.CurrentBody, data.TargetBody)
	if len(deltas) > 0 {
		b.WriteString("Top focus areas:\n")
		for i, d := range deltas {
			if i >= 4 {
				break
			}
			fmt.Fprintf(&b, "  - %s (gap %.2f)\n", d.Region, d.Delta)
		}
	}

	b.WriteString("\nKeep ascending.\n")
	return b.String()
}

func countDone(m map[string]bool) int {
	n := 0
	for _, done := range m {
		if done {
			n++
		}
	}
	return n
}

// Package applications implements adoption applications and their review workflow.
package applications

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const notFoundMessage = "Application not found or already processed"

// Notification texts. %s is the dog's name.
const (
	approvedText = "恭喜！您申请领养 %s 的申请已通过审核。请尽快联系我们安排见面时间。"
	rejectedText = "很抱歉，您申请领养 %s 的申请未通过审核。如有疑问请联系我们。"
)

// SubmitInput is an adoption request as sent by the applicant.
type SubmitInput struct {
	UserID      domain.ID
	DogID       domain.ID
	FullName    string
	Phone       string
	Address     string
	HasPets     bool
	HousingType string
}

// ReviewInput carries the notification details supplied by the reviewer. Both fields fall
// back to the stored application when empty.
type ReviewInput struct {
	UserID  domain.ID
	DogName string
}

type Service struct {
	store    storage.ApplicationStore
	notifier *services.Notifier
	log      *logging.Logger
}

func New(store storage.ApplicationStore, notifier *services.Notifier, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("applications")
	}
	return &Service{store: store, notifier: notifier, log: log}
}

// Submit stores a pending application. Field checks are left to the store.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.Application, error) {
	app, err := s.store.CreateApplication(ctx, domain.Application{
		UserID:      in.UserID,
		DogID:       in.DogID,
		FullName:    in.FullName,
		Phone:       in.Phone,
		Address:     in.Address,
		HasPets:     in.HasPets,
		HousingType: in.HousingType,
		Status:      domain.StatusPending,
	})
	if err != nil {
		return domain.Application{}, services.Upstream(err)
	}
	return app, nil
}

// ListAll is the admin view, newest first with dog names flattened in.
func (s *Service) ListAll(ctx context.Context) ([]domain.ApplicationView, error) {
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, services.Upstream(err)
	}
	return apps, nil
}

func (s *Service) ListForUser(ctx context.Context, userID domain.ID) ([]domain.ApplicationView, error) {
	apps, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, services.Upstream(err)
	}
	return apps, nil
}

func (s *Service) Approve(ctx context.Context, id domain.ID, in ReviewInput) (domain.Application, error) {
	return s.review(ctx, id, domain.StatusApproved, in)
}

func (s *Service) Reject(ctx context.Context, id domain.ID, in ReviewInput) (domain.Application, error) {
	return s.review(ctx, id, domain.StatusRejected, in)
}

// review moves a pending application to a terminal status, then notifies the applicant.
// Only the status update can fail the call.
func (s *Service) review(ctx context.Context, id domain.ID, to domain.Status, in ReviewInput) (domain.Application, error) {
	if err := domain.StatusPending.Transition(to); err != nil {
		return domain.Application{}, services.Validation(err.Error())
	}

	app, err := s.store.ReviewApplication(ctx, id, to)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Application{}, services.NotFound(notFoundMessage, err)
	}
	if err != nil {
		return domain.Application{}, services.Upstream(err)
	}

	s.log.WithContext(ctx).WithField("application_id", id).WithField("status", to).Info("application reviewed")

	recipient := in.UserID
	if recipient == "" {
		recipient = app.UserID
	}
	text := approvedText
	if to == domain.StatusRejected {
		text = rejectedText
	}
	s.notifier.Notify(ctx, recipient, fmt.Sprintf(text, s.dogName(ctx, app, in.DogName)))
	return app, nil
}

func (s *Service) dogName(ctx context.Context, app domain.Application, given string) string {
	if given != "" {
		return given
	}
	view, err := s.store.GetApplication(ctx, app.ID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("application_id", app.ID).Warn("dog name lookup failed")
		return domain.UnknownDogName
	}
	return view.DogName
}

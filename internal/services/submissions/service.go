// Package submissions implements user-proposed dog listings and their review. Approval
// promotes a submission into the dogs table.
package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/validation"
)

const (
	missingFieldsMessage = "Missing required fields: name, age, breed, location, image"
	notFoundMessage      = "Submission not found or already processed"

	approvedText     = "恭喜！您提交的小狗\"%s\"已通过审核，现已发布到平台上供其他用户查看。"
	rejectedText     = "很抱歉，您提交的小狗\"%s\"未通过审核。"
	rejectedReason   = "原因：%s"
	rejectedNoReason = "如有疑问请联系我们。"
)

// SubmitInput is a proposed listing. The five listing fields are required.
type SubmitInput struct {
	UserID      domain.ID `json:"userId"`
	Name        string    `json:"name" validate:"required"`
	Age         string    `json:"age" validate:"required"`
	Breed       string    `json:"breed" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Image       string    `json:"image" validate:"required"`
	Gender      string    `json:"gender"`
	Description *string   `json:"description"`
	Traits      []string  `json:"traits"`
}

type Service struct {
	submissions storage.SubmissionStore
	dogs        storage.DogStore
	profiles    storage.ProfileStore
	notifier    *services.Notifier
	log         *logging.Logger
	now         func() time.Time
}

func New(submissions storage.SubmissionStore, dogs storage.DogStore, profiles storage.ProfileStore, notifier *services.Notifier, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("submissions")
	}
	return &Service{
		submissions: submissions,
		dogs:        dogs,
		profiles:    profiles,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// Submit validates and stores a pending submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.DogSubmission, error) {
	if err := validation.Struct(in); err != nil {
		return domain.DogSubmission{}, services.Validation(missingFieldsMessage)
	}

	gender := in.Gender
	if gender == "" {
		gender = domain.DefaultGender
	}
	traits := in.Traits
	if traits == nil {
		traits = []string{}
	}

	sub, err := s.submissions.CreateSubmission(ctx, domain.DogSubmission{
		UserID:      in.UserID,
		Name:        in.Name,
		Age:         in.Age,
		Breed:       in.Breed,
		Location:    in.Location,
		Image:       in.Image,
		Gender:      gender,
		Description: in.Description,
		Traits:      traits,
		Status:      domain.StatusPending,
	})
	if err != nil {
		return domain.DogSubmission{}, services.Upstream(err)
	}
	return sub, nil
}

// ListAll returns every submission, newest first, each with its submitter's profile. The
// profiles are fetched in one batch; a failed lookup leaves them nil.
func (s *Service) ListAll(ctx context.Context) ([]domain.SubmissionView, error) {
	subs, err := s.submissions.ListSubmissions(ctx)
	if err != nil {
		return nil, services.Upstream(err)
	}

	ids := make([]domain.ID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.UserID)
	}
	byID := make(map[domain.ID]domain.Profile)
	if ids = domain.UniqueIDs(ids); len(ids) > 0 {
		profiles, err := s.profiles.GetProfiles(ctx, ids)
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("submitter profiles unavailable")
		}
		for _, p := range profiles {
			byID[p.ID] = p
		}
	}

	out := make([]domain.SubmissionView, 0, len(subs))
	for _, sub := range subs {
		view := domain.SubmissionView{DogSubmission: sub}
		if p, ok := byID[sub.UserID]; ok {
			view.Profile = &domain.ProfileSummary{ID: p.ID, Email: p.Email, FullName: p.FullName}
		}
		out = append(out, view)
	}
	return out, nil
}

// Approve creates the dog and then marks the submission approved. The dog row is the
// operation of record: once it exists, failures to update the submission are only logged.
func (s *Service) Approve(ctx context.Context, id domain.ID) (domain.Dog, error) {
	sub, err := s.pending(ctx, id)
	if err != nil {
		return domain.Dog{}, err
	}

	dog, err := s.dogs.CreateDog(ctx, sub.ToDog())
	if err != nil {
		return domain.Dog{}, services.Upstream(err)
	}

	entry := s.log.WithContext(ctx).WithField("submission_id", id).WithField("dog_id", dog.ID)
	if _, err := s.submissions.ReviewSubmission(ctx, id, domain.StatusApproved, s.now()); err != nil {
		entry.WithError(err).Warn("submission status not updated after dog creation")
	} else {
		entry.Info("submission approved")
	}

	s.notifier.Notify(ctx, sub.UserID, fmt.Sprintf(approvedText, sub.Name))
	return dog, nil
}

// Reject marks a pending submission rejected and notifies the submitter with the optional
// reason.
func (s *Service) Reject(ctx context.Context, id domain.ID, reason string) (domain.DogSubmission, error) {
	sub, err := s.pending(ctx, id)
	if err != nil {
		return domain.DogSubmission{}, err
	}

	updated, err := s.submissions.ReviewSubmission(ctx, id, domain.StatusRejected, s.now())
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DogSubmission{}, services.NotFound(notFoundMessage, err)
	}
	if err != nil {
		return domain.DogSubmission{}, services.Upstream(err)
	}

	text := fmt.Sprintf(rejectedText, sub.Name)
	if reason != "" {
		text += fmt.Sprintf(rejectedReason, reason)
	} else {
		text += rejectedNoReason
	}
	s.notifier.Notify(ctx, sub.UserID, text)
	return updated, nil
}

// pending re-reads the submission filtered on status = pending. This is the guard against
// reviewing twice.
func (s *Service) pending(ctx context.Context, id domain.ID) (domain.DogSubmission, error) {
	sub, err := s.submissions.GetPendingSubmission(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DogSubmission{}, services.NotFound(notFoundMessage, err)
	}
	if err != nil {
		return domain.DogSubmission{}, services.Upstream(err)
	}
	return sub, nil
}

package domain

import (
	"fmt"
	"time"
)

// Status is the review state shared by applications and dog submissions.
//
//	pending --approve--> approved (terminal)
//	pending --reject---> rejected (terminal)
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transition validates a review decision from the current status.
func (s Status) Transition(to Status) error {
	if s != StatusPending {
		return fmt.Errorf("cannot move from %q to %q", s, to)
	}
	if !to.Terminal() {
		return fmt.Errorf("invalid review outcome %q", to)
	}
	return nil
}

// UnknownDogName is shown when an application's dog no longer resolves ("未知" = unknown).
const UnknownDogName = "未知"

// Application is an adoption request for a dog.
type Application struct {
	ID          ID         `json:"id,omitempty"`
	UserID      ID         `json:"user_id"`
	DogID       ID         `json:"dog_id"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	HasPets     bool       `json:"has_pets"`
	HousingType string     `json:"housing_type"`
	Status      Status     `json:"status"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// ApplicationView is an application with the joined dog name flattened in.
type ApplicationView struct {
	Application
	DogName string `json:"dog_name"`
}

// DogSubmission is a user-proposed dog listing awaiting review.
type DogSubmission struct {
	ID          ID         `json:"id,omitempty"`
	UserID      ID         `json:"user_id"`
	Name        string     `json:"name"`
	Age         string     `json:"age"`
	Breed       string     `json:"breed"`
	Location    string     `json:"location"`
	Image       string     `json:"image"`
	Gender      string     `json:"gender"`
	Description *string    `json:"description"`
	Traits      []string   `json:"traits"`
	Status      Status     `json:"status"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// ToDog copies the listing fields of an approved submission.
func (s DogSubmission) ToDog() Dog {
	traits := s.Traits
	if traits == nil {
		traits = []string{}
	}
	return Dog{
		Name:        s.Name,
		Age:         s.Age,
		Breed:       s.Breed,
		Location:    s.Location,
		Image:       s.Image,
		Gender:      s.Gender,
		Description: s.Description,
		Traits:      traits,
	}
}

// SubmissionView is a submission decorated with the submitter's profile, or nil.
type SubmissionView struct {
	DogSubmission
	Profile *ProfileSummary `json:"profiles"`
}

// ProfileSummary is the profile projection shown to reviewers.
type ProfileSummary struct {
	ID       ID      `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/services/applications"
	"github.com/tonybigdeals/dog-project/internal/services/submissions"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !h.decode(w, r, &body) {
		return
	}
	res, err := h.svc.Auth.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !h.decode(w, r, &body) {
		return
	}
	res, err := h.svc.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listDogs(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Dogs.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) getDog(w http.ResponseWriter, r *http.Request) {
	dog, err := h.svc.Dogs.Get(r.Context(), domain.ID(mux.Vars(r)["id"]))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dog)
}

func (h *handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Favorites.List(r.Context(), domain.ID(mux.Vars(r)["userId"]))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID domain.ID `json:"userId"`
		DogID  domain.ID `json:"dogId"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	status, err := h.svc.Favorites.Toggle(r.Context(), body.UserID, body.DogID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.FavoriteStatus{"status": status})
}

func (h *handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID      domain.ID `json:"userId"`
		DogID       domain.ID `json:"dogId"`
		FullName    string    `json:"fullName"`
		Phone       string    `json:"phone"`
		Address     string    `json:"address"`
		HasPets     bool      `json:"hasPets"`
		HousingType string    `json:"housingType"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	app, err := h.svc.Applications.Submit(r.Context(), applications.SubmitInput(body))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Application submitted successfully",
		"data":    app,
	})
}

func (h *handler) listApplications(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Applications.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) listUserApplications(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Applications.ListForUser(r.Context(), domain.ID(mux.Vars(r)["userId"]))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

type reviewBody struct {
	UserID  domain.ID `json:"userId"`
	DogName string    `json:"dogName"`
}

func (h *handler) approveApplication(w http.ResponseWriter, r *http.Request) {
	var body reviewBody
	if !h.decode(w, r, &body) {
		return
	}
	if _, err := h.svc.Applications.Approve(r.Context(), domain.ID(mux.Vars(r)["id"]), applications.ReviewInput(body)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Application approved and notification sent"})
}

func (h *handler) rejectApplication(w http.ResponseWriter, r *http.Request) {
	var body reviewBody
	if !h.decode(w, r, &body) {
		return
	}
	if _, err := h.svc.Applications.Reject(r.Context(), domain.ID(mux.Vars(r)["id"]), applications.ReviewInput(body)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Application rejected and notification sent"})
}

func (h *handler) submitDog(w http.ResponseWriter, r *http.Request) {
	var body submissions.SubmitInput
	if !h.decode(w, r, &body) {
		return
	}
	sub, err := h.svc.Submissions.Submit(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Dog submission submitted successfully",
		"data":    sub,
	})
}

func (h *handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Submissions.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) approveSubmission(w http.ResponseWriter, r *http.Request) {
	dog, err := h.svc.Submissions.Approve(r.Context(), domain.ID(mux.Vars(r)["id"]))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Submission approved and dog added to database",
		"dog":     dog,
	})
}

func (h *handler) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if _, err := h.svc.Submissions.Reject(r.Context(), domain.ID(mux.Vars(r)["id"]), body.Reason); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Submission rejected"})
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Messages.ListForUser(r.Context(), domain.ID(mux.Vars(r)["userId"]))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

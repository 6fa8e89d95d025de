package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/services/forum"
)

func (h *handler) listTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics, err := h.svc.Forum.ListTopics(r.Context(), forum.ListQuery{
		Category: domain.Category(q.Get("category")),
		Sort:     domain.TopicSort(q.Get("sort")),
		Search:   q.Get("search"),
		ViewerID: domain.ID(q.Get("userId")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(topics))
}

func (h *handler) getTopic(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Forum.GetTopic(r.Context(), domain.ID(mux.Vars(r)["id"]), domain.ID(r.URL.Query().Get("userId")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *handler) createTopic(w http.ResponseWriter, r *http.Request) {
	var in forum.CreateTopicInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.svc.Forum.CreateTopic(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) createComment(w http.ResponseWriter, r *http.Request) {
	var in forum.CreateCommentInput
	if !h.decode(w, r, &in) {
		return
	}
	in.TopicID = domain.ID(mux.Vars(r)["topicId"])
	created, err := h.svc.Forum.CreateComment(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type likeToggler func(ctx context.Context, id, userID domain.ID) (forum.LikeResult, error)

func (h *handler) toggleTopicLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.svc.Forum.ToggleTopicLike)
}

func (h *handler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.svc.Forum.ToggleCommentLike)
}

func (h *handler) toggleReplyLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.svc.Forum.ToggleReplyLike)
}

func (h *handler) toggleLike(w http.ResponseWriter, r *http.Request, toggle likeToggler) {
	var body struct {
		UserID domain.ID `json:"userId"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	res, err := toggle(r.Context(), domain.ID(mux.Vars(r)["id"]), body.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

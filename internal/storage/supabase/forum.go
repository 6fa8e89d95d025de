package supabase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// counterRPC is the Postgres function installed by the schema migrations.
const counterRPC = "adjust_counter"

func (s *Store) ListTopics(ctx context.Context, filter storage.TopicFilter) ([]domain.Topic, error) {
	q := s.clientFor(ctx).From(storage.TableForumTopics).
		Select("*").
		Order("created_at", supabase.OrderDesc)
	if filter.CategoryLabel != "" {
		q = q.Eq("category", filter.CategoryLabel)
	}
	if term := storage.SearchTerm(filter.Search); term != "" {
		q = q.OrILike("*"+storage.EscapeLike(term)+"*", "title", "content")
	}

	topics := make([]domain.Topic, 0)
	if err := q.ExecuteInto(ctx, &topics); err != nil {
		return nil, mapError(err, "list topics")
	}
	return topics, nil
}

func (s *Store) GetTopic(ctx context.Context, id domain.ID) (domain.Topic, error) {
	var topic domain.Topic
	err := s.clientFor(ctx).From(storage.TableForumTopics).
		Select("*").
		Eq("id", id.String()).
		Single().
		ExecuteInto(ctx, &topic)
	if err != nil {
		return domain.Topic{}, mapError(err, "get topic %s", id)
	}
	return topic, nil
}

func (s *Store) CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error) {
	if topic.Tags == nil {
		topic.Tags = []string{}
	}
	if topic.Images == nil {
		topic.Images = []string{}
	}
	var rows []domain.Topic
	if err := s.clientFor(ctx).From(storage.TableForumTopics).Insert(topic).ExecuteInto(ctx, &rows); err != nil {
		return domain.Topic{}, mapError(err, "create topic")
	}
	return first(rows, "create topic")
}

func (s *Store) ListComments(ctx context.Context, topicID domain.ID) ([]domain.Comment, error) {
	comments := make([]domain.Comment, 0)
	err := s.clientFor(ctx).From(storage.TableForumComments).
		Select("*").
		Eq("topic_id", topicID.String()).
		Order("created_at", supabase.OrderAsc).
		ExecuteInto(ctx, &comments)
	if err != nil {
		return nil, mapError(err, "list comments")
	}
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	var rows []domain.Comment
	if err := s.clientFor(ctx).From(storage.TableForumComments).Insert(comment).ExecuteInto(ctx, &rows); err != nil {
		return domain.Comment{}, mapError(err, "create comment on topic %s", comment.TopicID)
	}
	return first(rows, "create comment")
}

func (s *Store) ListReplies(ctx context.Context, commentIDs []domain.ID) ([]domain.Reply, error) {
	replies := make([]domain.Reply, 0)
	if len(commentIDs) == 0 {
		return replies, nil
	}
	err := s.clientFor(ctx).From(storage.TableForumReplies).
		Select("*").
		In("comment_id", domain.IDStrings(commentIDs)).
		Order("created_at", supabase.OrderAsc).
		ExecuteInto(ctx, &replies)
	if err != nil {
		return nil, mapError(err, "list replies")
	}
	return replies, nil
}

func (s *Store) CreateReply(ctx context.Context, reply domain.Reply) (domain.Reply, error) {
	var rows []domain.Reply
	if err := s.clientFor(ctx).From(storage.TableForumReplies).Insert(reply).ExecuteInto(ctx, &rows); err != nil {
		return domain.Reply{}, mapError(err, "create reply on comment %s", reply.CommentID)
	}
	return first(rows, "create reply")
}

// --- likes ------------------------------------------------------------------

func (s *Store) HasLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) (bool, error) {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return false, err
	}
	body, err := s.clientFor(ctx).From(table).
		Select("id").
		Eq(column, subjectID.String()).
		Eq("user_id", userID.String()).
		Limit(1).
		Execute(ctx)
	if err != nil {
		return false, mapError(err, "check %s like", target)
	}
	return gjson.GetBytes(body, "#").Int() > 0, nil
}

func (s *Store) AddLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return err
	}
	_, err = s.clientFor(ctx).From(table).
		Insert(map[string]interface{}{column: subjectID, "user_id": userID}).
		Execute(ctx)
	return mapError(err, "add %s like %s", target, subjectID)
}

func (s *Store) RemoveLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return err
	}
	_, err = s.clientFor(ctx).From(table).
		Delete().
		Eq(column, subjectID.String()).
		Eq("user_id", userID.String()).
		Execute(ctx)
	return mapError(err, "remove %s like %s", target, subjectID)
}

func (s *Store) LikedSubjects(ctx context.Context, target domain.LikeTarget, subjectIDs []domain.ID, userID domain.ID) (map[domain.ID]bool, error) {
	out := make(map[domain.ID]bool)
	if len(subjectIDs) == 0 || userID == "" {
		return out, nil
	}
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return nil, err
	}
	body, err := s.clientFor(ctx).From(table).
		Select(column).
		Eq("user_id", userID.String()).
		In(column, domain.IDStrings(subjectIDs)).
		Execute(ctx)
	if err != nil {
		return nil, mapError(err, "list %s likes", target)
	}
	for _, v := range gjson.GetBytes(body, "#."+column).Array() {
		out[domain.ID(v.String())] = true
	}
	return out, nil
}

// AdjustCounter calls the adjust_counter function so the read-modify-write happens in a
// single statement on the database.
func (s *Store) AdjustCounter(ctx context.Context, counter domain.Counter, id domain.ID, delta int) (int, error) {
	if _, _, err := storage.CounterColumn(counter); err != nil {
		return 0, err
	}
	params := map[string]interface{}{
		"counter": string(counter),
		"row_id":  rowIDParam(id),
		"delta":   delta,
	}
	body, err := s.clientFor(ctx).Database().RPC(ctx, counterRPC, params)
	if err != nil {
		return 0, mapError(err, "adjust %s on %s", counter, id)
	}
	result := gjson.ParseBytes(body)
	if result.Type != gjson.Number {
		return 0, fmt.Errorf("adjust %s on %s: unexpected result %q", counter, id, result.Raw)
	}
	return int(result.Int()), nil
}

// rowIDParam sends numeric ids as JSON numbers so the bigint parameter binds without a cast.
func rowIDParam(id domain.ID) interface{} {
	if n, err := strconv.ParseInt(id.String(), 10, 64); err == nil {
		return n
	}
	return id.String()
}

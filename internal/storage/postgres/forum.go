package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const topicColumns = `id, user_id, title, content, category, tags, images, likes_count, comments_count, views_count, created_at`

type topicRow struct {
	ID            int64          `db:"id"`
	UserID        string         `db:"user_id"`
	Title         string         `db:"title"`
	Content       string         `db:"content"`
	Category      string         `db:"category"`
	Tags          pq.StringArray `db:"tags"`
	Images        pq.StringArray `db:"images"`
	LikesCount    int            `db:"likes_count"`
	CommentsCount int            `db:"comments_count"`
	ViewsCount    int            `db:"views_count"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r topicRow) toDomain() domain.Topic {
	return domain.Topic{
		ID:            formatID(r.ID),
		UserID:        domain.ID(r.UserID),
		Title:         r.Title,
		Content:       r.Content,
		Category:      r.Category,
		Tags:          stringsOrEmpty(r.Tags),
		Images:        stringsOrEmpty(r.Images),
		LikesCount:    r.LikesCount,
		CommentsCount: r.CommentsCount,
		ViewsCount:    r.ViewsCount,
		CreatedAt:     timePtr(r.CreatedAt),
	}
}

const commentColumns = `id, topic_id, user_id, content, likes_count, replies_count, created_at`

type commentRow struct {
	ID           int64     `db:"id"`
	TopicID      int64     `db:"topic_id"`
	UserID       string    `db:"user_id"`
	Content      string    `db:"content"`
	LikesCount   int       `db:"likes_count"`
	RepliesCount int       `db:"replies_count"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r commentRow) toDomain() domain.Comment {
	return domain.Comment{
		ID:           formatID(r.ID),
		TopicID:      formatID(r.TopicID),
		UserID:       domain.ID(r.UserID),
		Content:      r.Content,
		LikesCount:   r.LikesCount,
		RepliesCount: r.RepliesCount,
		CreatedAt:    timePtr(r.CreatedAt),
	}
}

const replyColumns = `id, comment_id, user_id, content, likes_count, created_at`

type replyRow struct {
	ID         int64     `db:"id"`
	CommentID  int64     `db:"comment_id"`
	UserID     string    `db:"user_id"`
	Content    string    `db:"content"`
	LikesCount int       `db:"likes_count"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r replyRow) toDomain() domain.Reply {
	return domain.Reply{
		ID:         formatID(r.ID),
		CommentID:  formatID(r.CommentID),
		UserID:     domain.ID(r.UserID),
		Content:    r.Content,
		LikesCount: r.LikesCount,
		CreatedAt:  timePtr(r.CreatedAt),
	}
}

func (s *Store) ListTopics(ctx context.Context, filter storage.TopicFilter) ([]domain.Topic, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CategoryLabel != "" {
		args = append(args, filter.CategoryLabel)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if term := storage.SearchTerm(filter.Search); term != "" {
		args = append(args, "%"+storage.EscapeLike(term)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(title ILIKE $"+n+" OR content ILIKE $"+n+")")
	}

	query := `SELECT ` + topicColumns + ` FROM forum_topics`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []topicRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "list topics")
	}
	out := make([]domain.Topic, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) GetTopic(ctx context.Context, id domain.ID) (domain.Topic, error) {
	var row topicRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+topicColumns+` FROM forum_topics WHERE id = $1`, string(id)); err != nil {
		return domain.Topic{}, mapError(err, "get topic %s", id)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error) {
	tags, images := topic.Tags, topic.Images
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}
	var row topicRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO forum_topics (user_id, title, content, category, tags, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+topicColumns,
		string(topic.UserID), topic.Title, topic.Content, topic.Category,
		pq.StringArray(tags), pq.StringArray(images))
	if err != nil {
		return domain.Topic{}, mapError(err, "create topic")
	}
	return row.toDomain(), nil
}

func (s *Store) ListComments(ctx context.Context, topicID domain.ID) ([]domain.Comment, error) {
	var rows []commentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+commentColumns+` FROM forum_comments WHERE topic_id = $1 ORDER BY created_at, id`,
		string(topicID))
	if err != nil {
		return nil, mapError(err, "list comments")
	}
	out := make([]domain.Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	var row commentRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO forum_comments (topic_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING `+commentColumns,
		string(comment.TopicID), string(comment.UserID), comment.Content)
	if err != nil {
		return domain.Comment{}, mapError(err, "create comment on topic %s", comment.TopicID)
	}
	return row.toDomain(), nil
}

func (s *Store) ListReplies(ctx context.Context, commentIDs []domain.ID) ([]domain.Reply, error) {
	if len(commentIDs) == 0 {
		return []domain.Reply{}, nil
	}
	var rows []replyRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+replyColumns+` FROM forum_replies WHERE comment_id = ANY($1::bigint[]) ORDER BY created_at, id`,
		pq.Array(domain.IDStrings(commentIDs)))
	if err != nil {
		return nil, mapError(err, "list replies")
	}
	out := make([]domain.Reply, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateReply(ctx context.Context, reply domain.Reply) (domain.Reply, error) {
	var row replyRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO forum_replies (comment_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING `+replyColumns,
		string(reply.CommentID), string(reply.UserID), reply.Content)
	if err != nil {
		return domain.Reply{}, mapError(err, "create reply on comment %s", reply.CommentID)
	}
	return row.toDomain(), nil
}

// --- likes ------------------------------------------------------------------

func (s *Store) HasLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) (bool, error) {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return false, err
	}
	var exists bool
	err = s.db.GetContext(ctx, &exists,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND user_id = $2)`, table, column),
		string(subjectID), string(userID))
	if err != nil {
		return false, mapError(err, "check %s like", target)
	}
	return exists, nil
}

func (s *Store) AddLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, user_id) VALUES ($1, $2)`, table, column),
		string(subjectID), string(userID))
	return mapError(err, "add %s like %s", target, subjectID)
}

func (s *Store) RemoveLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	table, column, err := storage.LikeTable(target)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, table, column),
		string(subjectID), string(userID))
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
	var liked []int64
	err = s.db.SelectContext(ctx, &liked,
		fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND %s = ANY($2::bigint[])`, column, table, column),
		string(userID), pq.Array(domain.IDStrings(subjectIDs)))
	if err != nil {
		return nil, mapError(err, "list %s likes", target)
	}
	for _, id := range liked {
		out[formatID(id)] = true
	}
	return out, nil
}

// AdjustCounter updates the counter in one statement so concurrent likes and comments
// never lose increments.
func (s *Store) AdjustCounter(ctx context.Context, counter domain.Counter, id domain.ID, delta int) (int, error) {
	table, column, err := storage.CounterColumn(counter)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.GetContext(ctx, &n,
		fmt.Sprintf(`UPDATE %s SET %s = GREATEST(0, %s + $2) WHERE id = $1 RETURNING %s`, table, column, column, column),
		string(id), delta)
	if err != nil {
		return 0, mapError(err, "adjust %s on %s", counter, id)
	}
	return n, nil
}

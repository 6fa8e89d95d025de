package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLabels(t *testing.T) {
	cases := []struct {
		in     Category
		filter string
		stored string
	}{
		{CategoryAll, "", "all"},
		{"", "", "日常分享"},
		{CategoryAdoption, "领养经验", "领养经验"},
		{CategoryDaily, "日常分享", "日常分享"},
		{CategoryHelp, "求助问答", "求助问答"},
		{"养狗心得", "", "养狗心得"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.filter, tc.in.FilterLabel(), "filter label for %q", tc.in)
		assert.Equal(t, tc.stored, tc.in.StoredLabel(), "stored label for %q", tc.in)
	}
}

func TestStatusTransitions(t *testing.T) {
	require.NoError(t, StatusPending.Transition(StatusApproved))
	require.NoError(t, StatusPending.Transition(StatusRejected))
	assert.Error(t, StatusPending.Transition(StatusPending))
	assert.Error(t, StatusApproved.Transition(StatusRejected))
	assert.Error(t, StatusRejected.Transition(StatusApproved))
	assert.True(t, StatusApproved.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var row struct {
		ID    ID `json:"id"`
		DogID ID `json:"dog_id"`
		Nil   ID `json:"nil"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"dog_id":"9b2d","nil":null}`), &row))
	assert.Equal(t, ID("42"), row.ID)
	assert.Equal(t, ID("9b2d"), row.DogID)
	assert.Equal(t, ID(""), row.Nil)

	out, err := json.Marshal(row.ID)
	require.NoError(t, err)
	assert.Equal(t, `"42"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"id":{}}`), &row))
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []ID{"a", "b"}, UniqueIDs([]ID{"a", "", "b", "a"}))
	assert.Equal(t, []string{"a", "b"}, IDStrings([]ID{"a", "b"}))
}

func TestSubmissionToDog(t *testing.T) {
	desc := "friendly"
	sub := DogSubmission{Name: "Lucky", Age: "2岁", Breed: "柯基", Location: "上海", Image: "http://x/y.png", Gender: "母", Description: &desc}
	dog := sub.ToDog()
	assert.Equal(t, "Lucky", dog.Name)
	assert.Equal(t, "母", dog.Gender)
	assert.Equal(t, &desc, dog.Description)
	assert.Equal(t, []string{}, dog.Traits)
	assert.Empty(t, dog.ID)
}

func TestNewNotification(t *testing.T) {
	msg := NewNotification("u1", "hi")
	assert.Equal(t, SystemSender, msg.SenderName)
	assert.True(t, msg.IsUnread)
	assert.Equal(t, ID("u1"), msg.UserID)
}

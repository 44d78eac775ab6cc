package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

func TestLocalStore_KeysAreNamespacedByOwner(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	p := store.NewLocalProvider(kv, zap.NewNop())

	require.NoError(t, p.Session("a@cuny.edu").AppendMessage(ctx, &model.Message{ID: "m1", Text: "hi", Sender: "a@cuny.edu", Timestamp: base, CourseID: "c1"}))
	require.NoError(t, p.Session("a@cuny.edu").Join(ctx, "c1"))

	assert.ElementsMatch(t, []string{"a@cuny.edu:chatMessages_c1", "a@cuny.edu:userCourses"}, kv.Keys())

	msgs, err := p.Session("b@cuny.edu").ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "其他用户不应看到本地消息")
}

func TestLocalStore_LeaveClearsCourseCaches(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	u := store.NewLocalProvider(kv, zap.NewNop()).Session("a@cuny.edu")

	require.NoError(t, u.Join(ctx, "c1"))
	require.NoError(t, u.Join(ctx, "c2"))
	require.NoError(t, u.AppendMessage(ctx, &model.Message{ID: "m1", Text: "hi", Sender: "a@cuny.edu", Timestamp: base, CourseID: "c1"}))
	require.NoError(t, u.AddResource(ctx, &model.Resource{ID: "r1", Title: "t", URL: "https://x", AddedBy: "a@cuny.edu", Timestamp: base, CourseID: "c1"}))
	require.NoError(t, u.AddPoll(ctx, samplePoll("p1")))

	require.NoError(t, u.Leave(ctx, "c1"))

	msgs, err := u.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	res, err := u.ListResources(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, res)
	polls, err := u.ListPolls(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, polls)

	list, err := u.ListMemberships(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c2", list[0].CourseID)
	assert.ElementsMatch(t, []string{"a@cuny.edu:userCourses"}, kv.Keys())
}

func TestLocalStore_CorruptedCollectionReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Update(ctx, "a@cuny.edu:chatMessages_c1", func([]byte) ([]byte, error) {
		return []byte("{not json"), nil
	}))

	u := store.NewLocalProvider(kv, zap.NewNop()).Session("a@cuny.edu")
	msgs, err := u.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, u.AppendMessage(ctx, &model.Message{ID: "m1", Text: "hi", Sender: "a@cuny.edu", Timestamp: base, CourseID: "c1"}))
	msgs, err = u.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestLocalStore_VoteRewritesCollection(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	u := store.NewLocalProvider(kv, zap.NewNop()).Session("a@cuny.edu")
	require.NoError(t, u.AddPoll(ctx, samplePoll("p1")))

	require.NoError(t, u.VoteOnPoll(ctx, "c1", "p1", "p1-a"))
	before, err := kv.Get(ctx, "a@cuny.edu:coursePolls_c1")
	require.NoError(t, err)

	require.NoError(t, u.VoteOnPoll(ctx, "c1", "p1", "p1-a"))
	after, err := kv.Get(ctx, "a@cuny.edu:coursePolls_c1")
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Contains(t, string(after), `"votes":["a@cuny.edu"]`)
}

func TestMemoryKV_UpdateNilDeletes(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	require.NoError(t, kv.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("v"), nil }))
	require.NoError(t, kv.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		assert.Equal(t, "v", string(cur))
		return nil, nil
	}))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

package service

import (
	"community-feed-backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func comment(id int, parent *int) *model.Comment {
	return &model.Comment{ID: id, PostID: 1, ParentID: parent}
}

func TestBuildCommentForest(t *testing.T) {
	// A, B 为根评论，C 回复 A，D 回复 C
	comments := []*model.Comment{
		comment(1, nil),
		comment(2, nil),
		comment(3, intPtr(1)),
		comment(4, intPtr(3)),
	}

	forest := BuildCommentForest(comments)
	assert.Equal(t, 4, forest.Len())
	require.Len(t, forest.Roots(), 2)
	assert.Equal(t, 1, forest.Roots()[0].ID)
	assert.Equal(t, 2, forest.Roots()[1].ID)
	assert.Len(t, forest.Children(1), 1)
	assert.Len(t, forest.Children(3), 1)
	assert.Empty(t, forest.Children(2))

	tree := RenderCommentTree(forest, map[int]bool{4: true})
	require.Len(t, tree, 2)

	a, b := tree[0], tree[1]
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.NotNil(t, b.Replies)
	assert.Empty(t, b.Replies)

	require.Len(t, a.Replies, 1)
	c := a.Replies[0]
	assert.Equal(t, 3, c.ID)
	require.Len(t, c.Replies, 1)
	d := c.Replies[0]
	assert.Equal(t, 4, d.ID)
	assert.True(t, d.UserHasLiked)
	assert.False(t, c.UserHasLiked)
	assert.NotNil(t, d.Replies)
	assert.Empty(t, d.Replies)
}

func TestRenderCommentTreeKeepsInputOrder(t *testing.T) {
	comments := []*model.Comment{
		comment(5, nil),
		comment(2, intPtr(5)),
		comment(9, intPtr(5)),
		comment(1, intPtr(5)),
	}

	tree := RenderCommentTree(BuildCommentForest(comments), nil)
	require.Len(t, tree, 1)

	var ids []int
	for _, reply := range tree[0].Replies {
		ids = append(ids, reply.ID)
	}
	assert.Equal(t, []int{2, 9, 1}, ids)
}

func TestRenderEmptyForest(t *testing.T) {
	tree := RenderCommentTree(BuildCommentForest(nil), nil)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestRenderDeepChain(t *testing.T) {
	const depth = 200
	comments := []*model.Comment{comment(1, nil)}
	for id := 2; id <= depth; id++ {
		comments = append(comments, comment(id, intPtr(id-1)))
	}

	node := RenderCommentTree(BuildCommentForest(comments), nil)[0]
	levels := 1
	for len(node.Replies) > 0 {
		node = node.Replies[0]
		levels++
	}
	assert.Equal(t, depth, levels)
	assert.Equal(t, depth, node.ID)
}

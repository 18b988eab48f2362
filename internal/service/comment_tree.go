package service

import "community-feed-backend/internal/model"

// NoParent 根评论在评论森林里的键，数据库自增ID从1开始
const NoParent = 0

// CommentForest 按父评论ID索引的评论森林。
// 子列表在一次读取中构建，节点之间不持有指针
type CommentForest struct {
	children map[int][]*model.Comment
	size     int
}

// BuildCommentForest 单次线性遍历按 parent_id 分组，保持输入顺序。
// 输入应当已按创建时间升序排列
func BuildCommentForest(comments []*model.Comment) *CommentForest {
	forest := &CommentForest{
		children: make(map[int][]*model.Comment),
		size:     len(comments),
	}
	for _, comment := range comments {
		key := NoParent
		if comment.ParentID != nil {
			key = *comment.ParentID
		}
		forest.children[key] = append(forest.children[key], comment)
	}
	return forest
}

// Children 返回某条评论的直接回复
func (f *CommentForest) Children(parentID int) []*model.Comment {
	return f.children[parentID]
}

// Roots 返回根评论
func (f *CommentForest) Roots() []*model.Comment {
	return f.children[NoParent]
}

// Len 返回森林中的评论总数
func (f *CommentForest) Len() int {
	return f.size
}

// RenderCommentTree 递归展开评论树，liked 为当前用户点过赞的评论ID集合（可为nil）
func RenderCommentTree(forest *CommentForest, liked map[int]bool) []*model.CommentNode {
	return renderChildren(forest, NoParent, liked)
}

func renderChildren(forest *CommentForest, parentID int, liked map[int]bool) []*model.CommentNode {
	children := forest.Children(parentID)
	nodes := make([]*model.CommentNode, 0, len(children))
	for _, comment := range children {
		nodes = append(nodes, &model.CommentNode{
			Comment:      comment,
			UserHasLiked: liked[comment.ID],
			Replies:      renderChildren(forest, comment.ID, liked),
		})
	}
	return nodes
}

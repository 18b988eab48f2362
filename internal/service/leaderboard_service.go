package service

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/util"
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	// KarmaWindow 排行榜统计的滑动窗口
	KarmaWindow = 24 * time.Hour
	// LeaderboardSize 排行榜条目上限
	LeaderboardSize = 5
)

type LeaderboardService struct {
	karma interfaces.KarmaRepository
	users interfaces.UserRepository
	now   func() time.Time
}

func NewLeaderboardService(karma interfaces.KarmaRepository, users interfaces.UserRepository) *LeaderboardService {
	return &LeaderboardService{
		karma: karma,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	s.now = now
	return s
}

// MergeKarma 按作者合并两类点赞，帖子点赞和评论点赞分别加权
func MergeKarma(postLikes, commentLikes []model.AuthorLikes) map[int]int {
	karma := make(map[int]int, len(postLikes)+len(commentLikes))
	for _, l := range postLikes {
		karma[l.UserID] += l.Likes * PostLikeKarma
	}
	for _, l := range commentLikes {
		karma[l.UserID] += l.Likes * CommentLikeKarma
	}
	return karma
}

// RankKarma 按 karma 降序排列，相同 karma 时用户ID小的在前。karma 为 0 的用户不上榜
func RankKarma(karma map[int]int, limit int) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(karma))
	for userID, k := range karma {
		if k <= 0 {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{UserID: userID, Karma: k})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Karma != entries[j].Karma {
			return entries[i].Karma > entries[j].Karma
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// GetLeaderboard 返回过去 24 小时 karma 最高的用户，按点赞时间而不是内容发布时间统计
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	since := s.now().Add(-KarmaWindow)

	postLikes, err := s.karma.PostLikesByAuthorSince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "统计帖子点赞失败", err)
	}
	commentLikes, err := s.karma.CommentLikesByAuthorSince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "统计评论点赞失败", err)
	}

	ranked := RankKarma(MergeKarma(postLikes, commentLikes), LeaderboardSize)
	if len(ranked) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	ids := make([]int, len(ranked))
	for i, entry := range ranked {
		ids[i] = entry.UserID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	usernames := make(map[int]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	// 统计期间被删除的用户直接跳过
	result := make([]model.LeaderboardEntry, 0, len(ranked))
	for _, entry := range ranked {
		name, ok := usernames[entry.UserID]
		if !ok {
			util.Logger.Warn("排行榜用户不存在", zap.Int("user_id", entry.UserID))
			continue
		}
		entry.Username = name
		result = append(result, entry)
	}
	return result, nil
}

type LeaderboardServiceInterface interface {
	GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

var _ LeaderboardServiceInterface = (*LeaderboardService)(nil)

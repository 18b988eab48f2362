// seed 向数据库写入演示数据：用户、帖子、多层评论以及分布在过去若干小时内的点赞
package main

import (
	"community-feed-backend/config"
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/repository/sqldb"
	"community-feed-backend/internal/service"
	"community-feed-backend/internal/util"
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var usernames = []string{"alice", "bob", "charlie", "diana", "eve", "frank"}

var postContents = []string{
	"Just deployed my first REST API! The documentation was super helpful.",
	"Has anyone tried the new React 19 features? The compiler looks promising.",
	"Working on a community feed project. Nested comments are tricky!",
	"Pro tip: load the whole comment thread in one query to avoid N+1 lookups.",
	"TIL about database constraints for preventing race conditions. Game changer!",
}

var commentTexts = []string{
	"Great post! Thanks for sharing.",
	"I had the same experience, very useful info.",
	"Could you explain more about this?",
	"This is exactly what I was looking for!",
	"Interesting perspective, thanks!",
}

type options struct {
	driver      string
	dsn         string
	password    string
	spreadHours int
	seed        int64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.Load()

	var opts options
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&opts.driver, "driver", cfg.DBDriver, "database driver: mysql, pgx or sqlite3")
	flagSet.StringVar(&opts.dsn, "dsn", "", "data source name (default: built from environment)")
	flagSet.StringVar(&opts.password, "password", "Password123!", "password for every seeded user")
	flagSet.IntVar(&opts.spreadHours, "spread-hours", 48, "likes are backdated up to this many hours; values above 24 put some outside the leaderboard window")
	flagSet.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage: seed [flags]\n\n%s", flagSet.FlagUsages())
		return nil
	}
	if opts.spreadHours < 1 {
		return fmt.Errorf("--spread-hours must be at least 1")
	}

	util.InitLogger(cfg.LogLevel)
	defer util.Logger.Sync()

	if opts.dsn == "" {
		cfg.DBDriver = opts.driver
		dsn, err := cfg.DSN()
		if err != nil {
			return err
		}
		opts.dsn = dsn
	}

	db, err := sqldb.Open(opts.driver, opts.dsn, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	s := &seeder{
		users:     service.NewUserService(sqldb.NewUserRepository(db)),
		userRepo:  sqldb.NewUserRepository(db),
		community: service.NewCommunityService(sqldb.NewCommunityRepository(db), nil),
		likes:     sqldb.NewCommunityRepository(db),
		rng:       rand.New(rand.NewSource(opts.seed)),
		now:       time.Now().UTC(),
		spread:    opts.spreadHours,
	}
	return s.seed(ctx, opts.password)
}

type seeder struct {
	users     *service.UserService
	userRepo  interfaces.UserRepository
	community *service.CommunityService
	likes     interfaces.CommunityRepository
	rng       *rand.Rand
	now       time.Time
	spread    int
}

func (s *seeder) seed(ctx context.Context, password string) error {
	util.Logger.Info("开始填充数据")

	users := make([]*model.User, 0, len(usernames))
	for _, name := range usernames {
		u, err := s.getOrCreateUser(ctx, name, password)
		if err != nil {
			return err
		}
		users = append(users, u)
	}
	util.Logger.Info("用户已就绪", zap.Int("count", len(users)))

	var posts []*model.Post
	for i, content := range postContents {
		post, err := s.community.CreatePost(ctx, users[i%len(users)].ID, content)
		if err != nil {
			return err
		}
		posts = append(posts, post)
	}

	var comments []*model.Comment
	for _, post := range posts {
		for i := 0; i < 2; i++ {
			root, err := s.community.CreateComment(ctx, users[(i+1)%len(users)].ID, post.ID, nil,
				commentTexts[s.rng.Intn(len(commentTexts))])
			if err != nil {
				return err
			}
			reply, err := s.community.CreateComment(ctx, users[(i+2)%len(users)].ID, post.ID, &root.ID,
				"Thanks for your reply!")
			if err != nil {
				return err
			}
			if _, err := s.community.CreateComment(ctx, users[(i+3)%len(users)].ID, post.ID, &reply.ID,
				"No problem, happy to help!"); err != nil {
				return err
			}
			comments = append(comments, root, reply)
		}
	}
	util.Logger.Info("帖子和评论已创建", zap.Int("posts", len(posts)))

	postLikes, commentLikes := 0, 0
	for _, post := range posts {
		for _, liker := range s.sample(users, 2+s.rng.Intn(3)) {
			if liker.ID == post.UserID {
				continue
			}
			like := &model.PostLike{UserID: liker.ID, PostID: post.ID, CreatedAt: s.backdate()}
			if ok, err := created(s.likes.CreatePostLike(ctx, like)); err != nil {
				return err
			} else if ok {
				postLikes++
			}
		}
	}

	if len(comments) > 10 {
		comments = comments[:10]
	}
	for _, comment := range comments {
		for _, liker := range s.sample(users, 1+s.rng.Intn(3)) {
			if liker.ID == comment.UserID {
				continue
			}
			like := &model.CommentLike{UserID: liker.ID, CommentID: comment.ID, CreatedAt: s.backdate()}
			if ok, err := created(s.likes.CreateCommentLike(ctx, like)); err != nil {
				return err
			} else if ok {
				commentLikes++
			}
		}
	}

	util.Logger.Info("数据填充完成",
		zap.Int("post_likes", postLikes),
		zap.Int("comment_likes", commentLikes))
	return nil
}

func (s *seeder) getOrCreateUser(ctx context.Context, name, password string) (*model.User, error) {
	u, err := s.users.Register(ctx, name, name+"@example.com", password)
	if err == nil {
		return u, nil
	}
	if errors.CodeOf(err) != errors.ErrUserExists {
		return nil, err
	}
	return s.userRepo.FindByUsername(ctx, name)
}

// backdate 返回过去 1 到 spread 小时之间的随机时间
func (s *seeder) backdate() time.Time {
	return s.now.Add(-time.Duration(1+s.rng.Intn(s.spread)) * time.Hour)
}

func (s *seeder) sample(users []*model.User, k int) []*model.User {
	if k > len(users) {
		k = len(users)
	}
	picked := make([]*model.User, 0, k)
	for _, i := range s.rng.Perm(len(users))[:k] {
		picked = append(picked, users[i])
	}
	return picked
}

// created 重复点赞不算错误
func created(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, interfaces.ErrDuplicate) {
		return false, nil
	}
	return false, err
}

// Package seed fills a development database with fake users, posts, comments and
// friendships. Everything is written through the concepts so stored data obeys the
// same rules as data created over the API.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"strider/internal/concepts/authing"
	"strider/internal/concepts/commenting"
	"strider/internal/concepts/friending"
	"strider/internal/concepts/posting"
	"strider/internal/database"
	"strider/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is given to every seeded account.
const DefaultPassword = "password"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	PostsPerUser    int
	CommentsPerPost int
	// FriendRatio is the probability that any two users are friends.
	FriendRatio float64
	// RequestRatio is the probability that two non-friends have a pending request.
	RequestRatio float64
	Password     string
	ShouldClean  bool
	// RandomSeed fixes the generated data. Zero picks a random seed.
	RandomSeed int64
	HashCost   int
}

// DefaultOptions is a small but connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:        12,
		PostsPerUser:    3,
		CommentsPerPost: 2,
		FriendRatio:     0.3,
		RequestRatio:    0.15,
		Password:        DefaultPassword,
		HashCost:        bcrypt.DefaultCost,
	}
}

// Result counts what Seed created.
type Result struct {
	Users       int
	Posts       int
	Comments    int
	Friendships int
	Requests    int
}

// Seed populates the database with test data
func Seed(ctx context.Context, db *gorm.DB, rdb *redis.Client, opts Options) (*Result, error) {
	if opts.NumUsers < 0 || opts.PostsPerUser < 0 || opts.CommentsPerPost < 0 {
		return nil, fmt.Errorf("seed counts must not be negative")
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	log := middleware.Logger.With(slog.String("component", "seed"))
	log.InfoContext(ctx, "seeding database",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts_per_user", opts.PostsPerUser),
	)

	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "existing data removed")
	}

	f := NewFactory(opts.RandomSeed)
	users := authing.New(db, rdb, authing.WithHashCost(opts.HashCost))
	posts := posting.New(db)
	comments := commenting.New(db)
	friends := friending.New(db)
	res := &Result{}

	ids := make([]uuid.UUID, 0, opts.NumUsers)
	for range opts.NumUsers {
		user, err := users.Create(ctx, f.Username(), opts.Password)
		if err != nil {
			return res, fmt.Errorf("create user: %w", err)
		}
		if err := users.UpdateStepSize(ctx, user.ID, f.StepSize()); err != nil {
			return res, fmt.Errorf("set step size: %w", err)
		}
		ids = append(ids, user.ID)
		res.Users++
	}

	for _, author := range ids {
		for range opts.PostsPerUser {
			post, err := posts.Create(ctx, author, f.PostContent(), f.PostOptions(), "")
			if err != nil {
				return res, fmt.Errorf("create post: %w", err)
			}
			res.Posts++

			if len(ids) < 2 {
				continue
			}
			for range opts.CommentsPerPost {
				commenter := ids[f.Intn(len(ids))]
				if _, err := comments.Create(ctx, commenter, post.ID, f.CommentContent()); err != nil {
					return res, fmt.Errorf("create comment: %w", err)
				}
				res.Comments++
			}
		}
	}

	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			switch {
			case f.Chance(opts.FriendRatio):
				if _, err := friends.SendRequest(ctx, ids[i], ids[j]); err != nil {
					return res, fmt.Errorf("send friend request: %w", err)
				}
				if _, err := friends.AcceptRequest(ctx, ids[i], ids[j]); err != nil {
					return res, fmt.Errorf("accept friend request: %w", err)
				}
				res.Friendships++
			case f.Chance(opts.RequestRatio):
				if _, err := friends.SendRequest(ctx, ids[j], ids[i]); err != nil {
					return res, fmt.Errorf("send friend request: %w", err)
				}
				res.Requests++
			}
		}
	}

	log.InfoContext(ctx, "seeding complete",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("friendships", res.Friendships),
		slog.Int("requests", res.Requests),
	)
	return res, nil
}

// Clean deletes every row of every persisted document type.
func Clean(ctx context.Context, db *gorm.DB) error {
	models := database.PersistentModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
			return fmt.Errorf("clean %T: %w", models[i], err)
		}
	}
	return nil
}

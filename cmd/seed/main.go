// Command seed fills the configured database with fake accounts and content.
package main

import (
	"context"
	"flag"
	"log"

	"strider/internal/bootstrap"
	"strider/internal/config"
	"strider/internal/database"
	"strider/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	friendRatio := flag.Float64("friends", defaults.FriendRatio, "Probability that two users are friends")
	password := flag.String("password", defaults.Password, "Password for every seeded account")
	randomSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.PostsPerUser = *postsPerUser
	opts.CommentsPerPost = *commentsPerPost
	opts.FriendRatio = *friendRatio
	opts.Password = *password
	opts.RandomSeed = *randomSeed
	opts.ShouldClean = *shouldClean

	res, err := seed.Seed(ctx, db, rdb, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d friendships, %d pending requests",
		res.Users, res.Posts, res.Comments, res.Friendships, res.Requests)
	log.Printf("All seeded users have the password: %s", opts.Password)
}

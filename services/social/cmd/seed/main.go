package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"
	"time"

	"chronofeed/pkg/config"
	"chronofeed/pkg/jwt"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/queue"
	"chronofeed/pkg/text"
	socialApp "chronofeed/services/social/internal/app"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"
	"chronofeed/services/social/internal/usecase"

	"github.com/brianvoe/gofakeit/v6"
)

var nonWord = regexp.MustCompile(`[^a-z0-9_]`)

type seeder struct {
	faker    *gofakeit.Faker
	profiles usecase.ProfileUseCase
	posts    usecase.PostUseCase
	comments usecase.CommentUseCase
	jwt      *jwt.Service
	log      *logger.Logger
}

func main() {
	var (
		users    = flag.Int("users", 20, "number of users to create")
		posts    = flag.Int("posts", 5, "text posts per user")
		comments = flag.Int("comments", 2, "comments per post")
		follows  = flag.Int("follows", 5, "accounts each user follows")
		seed     = flag.Int64("seed", 0, "random seed (0 = time based)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	backend, err := socialApp.OpenBackend(cfg)
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		panic(err)
	}
	defer backend.Close()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	store := backend.Store
	profileRepo := persistent.NewProfileRepository(store)
	graphRepo := persistent.NewGraphRepository(store)
	postRepo := persistent.NewPostRepository(store)
	commentRepo := persistent.NewCommentRepository(store)
	limits := usecase.DefaultLimits()
	publisher := queue.NopPublisher{}

	// Seeding creates text content only, so no blob storage is attached.
	s := &seeder{
		faker:    gofakeit.New(*seed),
		profiles: usecase.NewProfileUseCase(profileRepo, graphRepo, nil, publisher, limits, log),
		posts:    usecase.NewPostUseCase(postRepo, commentRepo, profileRepo, nil, publisher, limits, log),
		comments: usecase.NewCommentUseCase(commentRepo, postRepo, profileRepo, publisher, log),
		jwt:      jwt.NewService(cfg.JWTSecret).WithIssuer(cfg.JWTIssuer),
		log:      log,
	}

	if err := s.run(context.Background(), *users, *posts, *comments, *follows); err != nil {
		log.Error("Failed to seed: %v", err)
		panic(err)
	}
	log.Info("Store seeded successfully (seed=%d)", *seed)
}

func (s *seeder) run(ctx context.Context, users, postsPerUser, commentsPerPost, follows int) error {
	created := make([]*entity.UserProfile, 0, users)
	for i := 0; i < users; i++ {
		username := s.username(i)
		email := username + "@example.com"
		profile, err := s.profiles.CreateProfile(ctx, email, username, truncate(s.faker.Sentence(8), 160))
		if err != nil {
			s.log.Warn("Skipping user %s: %v", username, err)
			continue
		}
		created = append(created, profile)

		token, err := s.jwt.GenerateToken(email, username)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\tBearer %s\n", username, email, token)
	}
	if len(created) == 0 {
		return nil
	}

	for _, p := range created {
		for j := 0; j < follows && j < len(created)-1; j++ {
			target := created[s.faker.Number(0, len(created)-1)]
			if target.Email == p.Email {
				continue
			}
			if err := s.profiles.Follow(ctx, p.Email, target.Username); err != nil {
				return err
			}
		}
	}

	var postIDs []string
	for _, p := range created {
		for j := 0; j < postsPerUser; j++ {
			body := s.faker.Sentence(s.faker.Number(5, 25))
			if s.faker.Bool() {
				other := created[s.faker.Number(0, len(created)-1)]
				body += " @" + other.Username
			}
			post, err := s.posts.CreateTextPost(ctx, p.Email, truncate(body, 2000))
			if err != nil {
				return err
			}
			postIDs = append(postIDs, post.ID)
		}
	}

	for _, id := range postIDs {
		for j := 0; j < commentsPerPost; j++ {
			author := created[s.faker.Number(0, len(created)-1)]
			if _, err := s.comments.CreateComment(ctx, author.Email, id, truncate(s.faker.Sentence(6), 300)); err != nil {
				return err
			}
		}
	}

	s.log.Info("Seeded %d users, %d posts, %d comments", len(created), len(postIDs), len(postIDs)*commentsPerPost)
	return nil
}

// username derives a valid, unique username from a fake one.
func (s *seeder) username(i int) string {
	base := nonWord.ReplaceAllString(strings.ToLower(s.faker.Username()), "")
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s_%d", base, i)
}

func truncate(s string, max int) string {
	if text.Length(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Package seed populates the database with fake users, posts and social
// activity for development and testing.
package seed

import (
	"fmt"
	"log"

	"socialhub/internal/database"
	"socialhub/internal/models"

	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded user.
const DefaultPassword = "password1"

// Options configuration for the seeder
type Options struct {
	NumUsers   int
	NumPosts   int
	Clean      bool
	SkipBcrypt bool
	DryRun     bool
	MaxDays    int
	BatchSize  int
	RandSeed   int64
}

// Stats counts what a seeding run wrote.
type Stats struct {
	Users         int
	Friendships   int
	Requests      int
	Posts         int
	Comments      int
	Likes         int
	Notifications int
}

// Seeder drives a Factory to build a connected social graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
	stats   Stats
}

func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f, opts: opts}, nil
}

// Stats returns the running totals.
func (s *Seeder) Stats() Stats {
	return s.stats
}

// Run executes a full seeding pass according to the seeder's options.
func (s *Seeder) Run() (Stats, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.Clean {
		if err := s.ClearAll(); err != nil {
			return s.stats, fmt.Errorf("clear data: %w", err)
		}
	}

	users, err := s.SeedSocialMesh(s.opts.NumUsers)
	if err != nil {
		return s.stats, fmt.Errorf("seed users: %w", err)
	}
	log.Printf("✓ %d users, %d friendships, %d pending requests", s.stats.Users, s.stats.Friendships, s.stats.Requests)

	if err := s.SeedEngagement(users, s.opts.NumPosts); err != nil {
		return s.stats, fmt.Errorf("seed engagement: %w", err)
	}
	log.Printf("✓ %d posts, %d comments, %d likes, %d notifications",
		s.stats.Posts, s.stats.Comments, s.stats.Likes, s.stats.Notifications)

	log.Println("🎉 Database seeding completed successfully!")
	return s.stats, nil
}

// ClearAll deletes every row of every schema-managed table, children first.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()
	return s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for i := len(all) - 1; i >= 0; i-- {
			if err := tx.Delete(all[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", all[i], err)
			}
		}
		return nil
	})
}

var baseUsers = []string{"demouser", "alice", "bobby"}

// SeedSocialMesh creates count users wired into a ring of friendships, each
// user befriending the next two, plus one pending request per user toward
// the user three places ahead.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		var overrides []func(*models.User)
		if i < len(baseUsers) && count >= len(baseUsers) {
			name := baseUsers[i]
			overrides = append(overrides, func(u *models.User) {
				u.Username = name
				u.Email = name + "@example.com"
			})
		}
		user, err := s.factory.CreateUser(i, overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	s.stats.Users += len(users)

	n := len(users)
	paired := make(map[[2]int]bool)
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	for i := range users {
		for step := 1; step <= 2; step++ {
			j := (i + step) % n
			if j == i || paired[key(i, j)] {
				continue
			}
			if err := s.factory.Befriend(users[i], users[j]); err != nil {
				return nil, err
			}
			paired[key(i, j)] = true
			s.stats.Friendships++
		}
	}
	for i := range users {
		j := (i + 3) % n
		if j == i || paired[key(i, j)] {
			continue
		}
		if err := s.factory.RequestFriendship(users[i], users[j]); err != nil {
			return nil, err
		}
		paired[key(i, j)] = true
		s.stats.Requests++
		s.stats.Notifications++
	}
	return users, nil
}

// SeedEngagement creates numPosts posts by random authors and fills them
// with comments, replies, likes and the matching notifications.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) error {
	if len(users) == 0 || numPosts <= 0 {
		return nil
	}
	fake := s.factory.fake
	pick := func() *models.User { return users[fake.Number(0, len(users)-1)] }

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		posts = append(posts, s.factory.BuildPost(pick()))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return err
	}
	s.stats.Posts += len(posts)

	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, post := range posts {
		author := byID[post.UserID]

		for _, liker := range s.sample(users, fake.Number(0, 5)) {
			if err := s.factory.LikePost(liker, post); err != nil {
				return err
			}
			s.stats.Likes++
			if err := s.notify(liker, author, models.NotificationLike, "%s liked your post"); err != nil {
				return err
			}
		}

		for c := fake.Number(0, 4); c > 0; c-- {
			commenter := pick()
			comment, err := s.factory.CreateComment(commenter, post)
			if err != nil {
				return err
			}
			s.stats.Comments++
			if err := s.notify(commenter, author, models.NotificationComment, "%s commented on your post"); err != nil {
				return err
			}

			if fake.Number(0, 2) == 0 {
				replier := pick()
				if _, err := s.factory.CreateReply(replier, comment); err != nil {
					return err
				}
				s.stats.Comments++
				if err := s.notify(replier, commenter, models.NotificationComment, "%s replied to your comment"); err != nil {
					return err
				}
			}

			for _, liker := range s.sample(users, fake.Number(0, 2)) {
				if err := s.factory.LikeComment(liker, comment); err != nil {
					return err
				}
				s.stats.Likes++
			}
		}
	}
	return nil
}

func (s *Seeder) notify(actor, receiver *models.User, kind models.NotificationType, format string) error {
	if actor.ID == receiver.ID {
		return nil
	}
	if err := s.factory.Notify(actor, receiver, kind, fmt.Sprintf(format, actor.Username)); err != nil {
		return err
	}
	s.stats.Notifications++
	return nil
}

// sample returns up to n distinct users.
func (s *Seeder) sample(users []*models.User, n int) []*models.User {
	if n > len(users) {
		n = len(users)
	}
	idx := make([]int, len(users))
	for i := range idx {
		idx[i] = i
	}
	s.factory.fake.ShuffleInts(idx)
	out := make([]*models.User, 0, n)
	for _, i := range idx[:n] {
		out = append(out, users[i])
	}
	return out
}

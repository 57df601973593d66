package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"socialhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{db: db, opts: opts, fake: gofakeit.New(seed), hash: string(hash), nextID: 1000}, nil
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// pastTime returns a timestamp spread over the last opts.MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.fake.Number(0, maxDays-1))*24*time.Hour +
		time.Duration(f.fake.Number(0, 23))*time.Hour +
		time.Duration(f.fake.Number(0, 59))*time.Minute
	return time.Now().Add(-back)
}

// username fits the 5..20 character rule and ends in n so it stays unique.
func username(base string, n int) string {
	suffix := fmt.Sprintf("%d", n)
	base = strings.ToLower(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, base))
	if limit := 20 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	for len(base)+len(suffix) < 5 {
		base += "_"
	}
	return base + suffix
}

// BuildUser constructs a verified user without persisting it.
func (f *Factory) BuildUser(n int, overrides ...func(*models.User)) *models.User {
	name := username(f.fake.Username(), n)
	user := &models.User{
		Username:   name,
		Email:      name + "@example.com",
		Password:   f.hash,
		Bio:        f.fake.Sentence(10),
		Location:   f.fake.City(),
		Avatar:     "https://i.pravatar.cc/150?u=" + name,
		IsVerified: true,
	}
	user.CreatedAt = f.pastTime()
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(n int, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(n, overrides...)
	if f.opts.DryRun {
		user.ID = f.assignID()
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for author without persisting it. Roughly a
// third of posts carry an image.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:     author.ID,
		Content:    f.fake.Paragraph(1, f.fake.Number(1, 4), 8, " "),
		Visibility: models.VisibilityPublic,
	}
	if f.fake.Number(0, 2) == 0 {
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.fake.UUID())
	}
	if f.fake.Bool() {
		post.Location = f.fake.City()
	}
	tags := make(models.StringList, 0, 3)
	for i := f.fake.Number(0, 3); i > 0; i-- {
		tags = append(tags, strings.ToLower(f.fake.Hobby()))
	}
	post.Tags = tags
	post.CreatedAt = f.pastTime()
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in batches of opts.BatchSize.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.assignID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CreateComment persists a top-level comment on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:  post.ID,
		UserID:  author.ID,
		Content: f.fake.Sentence(f.fake.Number(3, 14)),
	}
	comment.CreatedAt = post.CreatedAt.Add(time.Duration(f.fake.Number(1, 600)) * time.Minute)
	return comment, f.save(comment)
}

// CreateReply persists a reply to a top-level comment.
func (f *Factory) CreateReply(author *models.User, parent *models.Comment) (*models.Comment, error) {
	parentID := parent.ID
	reply := &models.Comment{
		PostID:          parent.PostID,
		UserID:          author.ID,
		ParentCommentID: &parentID,
		Content:         f.fake.Sentence(f.fake.Number(2, 10)),
	}
	reply.CreatedAt = parent.CreatedAt.Add(time.Duration(f.fake.Number(1, 120)) * time.Minute)
	return reply, f.save(reply)
}

// LikePost adds user to the post's like set. Repeated likes are ignored.
func (f *Factory) LikePost(user *models.User, post *models.Post) error {
	return f.saveIgnoringDuplicate(&models.PostLike{UserID: user.ID, PostID: post.ID})
}

// LikeComment adds user to the comment's like set. Repeated likes are ignored.
func (f *Factory) LikeComment(user *models.User, comment *models.Comment) error {
	return f.saveIgnoringDuplicate(&models.CommentLike{UserID: user.ID, CommentID: comment.ID})
}

// Befriend writes both directions of a friendship together with the
// accepted request that produced it.
func (f *Factory) Befriend(a, b *models.User) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		req := &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID, Status: models.FriendRequestAccepted}
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		rows := []models.Friendship{
			{UserID: a.ID, FriendID: b.ID},
			{UserID: b.ID, FriendID: a.ID},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// RequestFriendship leaves a pending request from sender to receiver along
// with the receiver's notification.
func (f *Factory) RequestFriendship(sender, receiver *models.User) error {
	if err := f.save(&models.FriendRequest{RequesterID: sender.ID, ReceiverID: receiver.ID, Status: models.FriendRequestPending}); err != nil {
		return err
	}
	return f.Notify(sender, receiver, models.NotificationFriendRequest, sender.Username+" sent you a friend request")
}

// Notify persists a notification. Notifications to oneself are skipped.
func (f *Factory) Notify(sender, receiver *models.User, kind models.NotificationType, message string) error {
	if sender.ID == receiver.ID {
		return nil
	}
	return f.save(&models.Notification{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Type:       kind,
		Message:    message,
		IsRead:     f.fake.Number(0, 3) == 0,
	})
}

func (f *Factory) save(v interface{}) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(v).Error
}

func (f *Factory) saveIgnoringDuplicate(v interface{}) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(v).Error
}

// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"socialhub/internal/database"
	"socialhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userSeq atomic.Uint64

// NewTestDB opens a migrated in-memory sqlite database. A single connection
// is used so every query sees the same memory database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(database.SQLiteDialector(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: database.NewGormLogger(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// TestPassword is the plaintext password of every user made by CreateUser.
const TestPassword = "secret123"

var testPasswordHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// CreateUser inserts a verified user with a unique username and email.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	if username == "" {
		username = "member" + strconv.FormatUint(n, 10)
	}
	user := &models.User{
		Username:   username,
		Email:      strings.ToLower(username) + strconv.FormatUint(n, 10) + "@example.com",
		Password:   testPasswordHash,
		Bio:        "bio of " + username,
		Location:   "Lisbon",
		Avatar:     "/uploads/avatars/" + username + ".jpg",
		IsVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// PNG returns an encoded w x h PNG filled with a gradient.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

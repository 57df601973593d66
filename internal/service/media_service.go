package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarMaxUploadMB = 5
	DefaultImageMaxUploadMB  = 10
	AvatarSize               = 512
	PostImageMaxSize         = 2048
	JPEGQuality              = 82
	WebPQuality              = 70
	// MaxImagePixels caps width*height before a full decode.
	MaxImagePixels = 40_000_000
)

var allowedRatios = []struct {
	name  string
	ratio float64
}{
	{name: "landscape", ratio: 1.91},
	{name: "square", ratio: 1.0},
	{name: "portrait", ratio: 0.8},
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StoredImage is a normalized image written to the object store.
type StoredImage struct {
	Key      string
	URL      string
	Width    int
	Height   int
	CropMode string
}

// MediaService validates uploaded images, normalizes them and writes them to
// the object store.
type MediaService struct {
	store          storage.ObjectStore
	avatarMaxBytes int64
	imageMaxBytes  int64
}

// NewMediaService returns a MediaService writing to store.
func NewMediaService(store storage.ObjectStore, cfg *config.Config) *MediaService {
	avatarMB := DefaultAvatarMaxUploadMB
	imageMB := DefaultImageMaxUploadMB
	if cfg != nil {
		if cfg.AvatarMaxUploadMB > 0 {
			avatarMB = cfg.AvatarMaxUploadMB
		}
		if cfg.ImageMaxUploadMB > 0 {
			imageMB = cfg.ImageMaxUploadMB
		}
	}
	return &MediaService{
		store:          store,
		avatarMaxBytes: int64(avatarMB) * 1024 * 1024,
		imageMaxBytes:  int64(imageMB) * 1024 * 1024,
	}
}

// AvatarMaxBytes is the upload limit for avatars.
func (s *MediaService) AvatarMaxBytes() int64 { return s.avatarMaxBytes }

// StoreAvatar center-crops the upload to a square, scales it down to
// AvatarSize and stores it as JPEG.
func (s *MediaService) StoreAvatar(ctx context.Context, userHint string, in *Upload) (*StoredImage, error) {
	if in == nil || len(in.Content) == 0 {
		return nil, models.NewValidationError("Avatar file is required")
	}
	if int64(len(in.Content)) > s.avatarMaxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File size exceeds the maximum allowed size of %dMB", s.avatarMaxBytes/(1024*1024)))
	}

	decoded, err := decodeUpload(in)
	if err != nil {
		return nil, err
	}

	b := decoded.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	cropped := cropToRect(decoded, b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2, side, side)
	final := resizeToFit(cropped, AvatarSize, AvatarSize)

	encoded, err := encodeJPEG(final, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := fmt.Sprintf("avatars/%s.jpg", uuid.NewString())
	url, err := s.store.Put(ctx, key, "image/jpeg", encoded)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "Avatar upload failed", slog.String("user", userHint), slog.String("error", err.Error()))
		return nil, models.NewInternalError(err)
	}
	fb := final.Bounds()
	return &StoredImage{Key: key, URL: url, Width: fb.Dx(), Height: fb.Dy(), CropMode: "square"}, nil
}

// StorePostImage crops the upload to the nearest allowed aspect ratio, caps
// its size and stores it as WebP. Identical uploads by the same user map to
// the same key.
func (s *MediaService) StorePostImage(ctx context.Context, userID uint, in *Upload) (*StoredImage, error) {
	if in == nil || len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.imageMaxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File size exceeds the maximum allowed size of %dMB", s.imageMaxBytes/(1024*1024)))
	}

	decoded, err := decodeUpload(in)
	if err != nil {
		return nil, err
	}

	b := decoded.Bounds()
	cropMode, cropX, cropY, cropW, cropH := selectCropMode(b.Dx(), b.Dy())
	cropped := cropToRect(decoded, b.Min.X+cropX, b.Min.Y+cropY, cropW, cropH)
	final := resizeToFit(cropped, PostImageMaxSize, PostImageMaxSize)

	encoded, err := encodeWebP(final, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := fmt.Sprintf("posts/%s.webp", buildDeterministicImageHash(userID, encoded))
	url, err := s.store.Put(ctx, key, "image/webp", encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fb := final.Bounds()
	return &StoredImage{Key: key, URL: url, Width: fb.Dx(), Height: fb.Dy(), CropMode: cropMode}, nil
}

// Discard removes a stored object, logging failures. It is used to clean up
// after a later step of the same request fails.
func (s *MediaService) Discard(ctx context.Context, img *StoredImage) {
	if img == nil {
		return
	}
	if err := s.store.Delete(ctx, img.Key); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to discard stored image", slog.String("key", img.Key), slog.String("error", err.Error()))
	}
}

func decodeUpload(in *Upload) (image.Image, error) {
	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError("Invalid image file")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	sourceMimeType := decodedFormatToMime(format)
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}
	return decoded, nil
}

func selectCropMode(w, h int) (mode string, cropX, cropY, cropW, cropH int) {
	if w <= 0 || h <= 0 {
		return "free", 0, 0, w, h
	}
	ratio := float64(w) / float64(h)
	bestMode := "square"
	bestRatio := 1.0
	bestDist := absFloat(ratio - 1.0)
	for _, r := range allowedRatios {
		d := absFloat(ratio - r.ratio)
		if d < bestDist {
			bestDist = d
			bestRatio = r.ratio
			bestMode = r.name
		}
	}

	if ratio > bestRatio {
		cropH = h
		cropW = int(float64(h) * bestRatio)
		cropX = (w - cropW) / 2
		cropY = 0
	} else {
		cropW = w
		cropH = int(float64(w) / bestRatio)
		cropX = 0
		cropY = (h - cropH) / 2
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	return bestMode, cropX, cropY, cropW, cropH
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func buildDeterministicImageHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

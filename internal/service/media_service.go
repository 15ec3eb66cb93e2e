package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Credit cost per paid operation.
const (
	CostImageUpload       = 1
	CostVideoUpload       = 2
	CostGenerateImage     = 5
	CostImageTransform    = 2
	CostGenerativeReplace = 3
	CostImageExtend       = 3
	CostRemoveBackground  = 2
)

const maxUploadSize = 60 * 1024 * 1024

// Defaults for the extend canvas, matching the product's wide-banner preset.
const (
	defaultExtendWidth  = 1500
	defaultExtendHeight = 400
)

// MediaService runs the paid-operation sequence shared by every feature
// endpoint: advisory balance check, external media call, persist the result
// row, debit through the ledger. The external call and the debit are not
// atomic; a debit rejection after a successful call triggers compensation
// (result row deleted, remote asset destroy attempted) so the user is
// neither charged nor left holding the artifact.
type MediaService struct {
	users     UserStore
	credits   *UserService
	images    ImageStore
	videos    VideoStore
	uploader  MediaUploader
	generator ImageGenerator
	archive   ArchiveStore
	logger    *zap.Logger
}

func NewMediaService(
	users UserStore,
	credits *UserService,
	images ImageStore,
	videos VideoStore,
	uploader MediaUploader,
	generator ImageGenerator,
	archive ArchiveStore,
	logger *zap.Logger,
) *MediaService {
	return &MediaService{
		users:     users,
		credits:   credits,
		images:    images,
		videos:    videos,
		uploader:  uploader,
		generator: generator,
		archive:   archive,
		logger:    logger,
	}
}

// ensureCredits resolves the user row and runs the advisory balance check.
func (s *MediaService) ensureCredits(userID uint, cost int) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	enough, err := s.credits.HasEnoughCredits(user.ID, cost)
	if err != nil {
		return nil, err
	}
	if !enough {
		return nil, apperr.InsufficientCredits(user.Credits, cost)
	}
	return user, nil
}

// debitOrCompensate charges for a finished operation. On failure the
// compensate callback undoes the persisted artifact; the caller gets the
// debit error either way.
func (s *MediaService) debitOrCompensate(userID uint, cost int, description string, metadata map[string]interface{}, compensate func()) error {
	if _, _, err := s.credits.UseCredits(userID, cost, description, metadata); err != nil {
		s.logger.Warn("debit failed after external operation, compensating",
			zap.Uint("user_id", userID),
			zap.String("operation", description),
			zap.Error(err),
		)
		if compensate != nil {
			compensate()
		}
		return err
	}
	return nil
}

func (s *MediaService) UploadImage(ctx context.Context, userID uint, file *multipart.FileHeader, title, description string) (*models.Image, int, error) {
	user, err := s.ensureCredits(userID, CostImageUpload)
	if err != nil {
		return nil, 0, err
	}

	data, err := readUpload(file, isValidImageType)
	if err != nil {
		return nil, 0, err
	}

	archiveKey := s.archiveOriginal(ctx, userID, file.Filename, data)

	result, err := s.uploader.UploadImage(ctx, bytes.NewReader(data), file.Filename, "mediamorph/uploads")
	if err != nil {
		return nil, 0, apperr.External("Image upload failed", err)
	}

	image := &models.Image{
		UserID:      userID,
		Title:       title,
		Description: description,
		PublicID:    result.PublicID,
		SecureURL:   result.SecureURL,
		Type:        models.ImageUploaded,
		ArchiveKey:  archiveKey,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "image_upload",
			"bytes":     result.Bytes,
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostImageUpload, "Image upload and optimization", map[string]interface{}{
		"image_id":  image.ID,
		"public_id": image.PublicID,
		"operation": "image_upload",
	}, func() { s.removeImageArtifact(ctx, image) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostImageUpload, nil
}

func (s *MediaService) UploadVideo(ctx context.Context, userID uint, file *multipart.FileHeader, title, description, originalSize string) (*models.Video, int, error) {
	user, err := s.ensureCredits(userID, CostVideoUpload)
	if err != nil {
		return nil, 0, err
	}

	data, err := readUpload(file, isValidVideoType)
	if err != nil {
		return nil, 0, err
	}

	archiveKey := s.archiveOriginal(ctx, userID, file.Filename, data)

	result, err := s.uploader.UploadVideo(ctx, bytes.NewReader(data), file.Filename, "mediamorph/videos")
	if err != nil {
		return nil, 0, apperr.External("Video upload failed", err)
	}

	video := &models.Video{
		UserID:         userID,
		Title:          title,
		Description:    description,
		PublicID:       result.PublicID,
		OriginalSize:   originalSize,
		CompressedSize: fmt.Sprintf("%d", result.Bytes),
		Duration:       result.Duration,
		Status:         models.VideoStatusCompleted,
		ArchiveKey:     archiveKey,
	}
	if err := s.videos.Create(video); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostVideoUpload, "Video upload and processing", map[string]interface{}{
		"video_id":  video.ID,
		"public_id": video.PublicID,
		"operation": "video_upload",
	}, func() { s.removeVideoArtifact(ctx, video) })
	if err != nil {
		return nil, 0, err
	}

	return video, user.Credits - CostVideoUpload, nil
}

func (s *MediaService) GenerateImage(ctx context.Context, userID uint, prompt string) (*models.Image, int, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, 0, apperr.Validation("Prompt is required")
	}

	user, err := s.ensureCredits(userID, CostGenerateImage)
	if err != nil {
		return nil, 0, err
	}

	imageURL, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, 0, apperr.External("Image generation failed", err)
	}

	image := &models.Image{
		UserID:    userID,
		SecureURL: imageURL,
		Type:      models.ImageGenerated,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "generate_image",
			"prompt":    prompt,
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostGenerateImage, "AI image generation", map[string]interface{}{
		"image_id":  image.ID,
		"operation": "generate_image",
		"prompt":    prompt,
	}, func() { s.removeImageArtifact(ctx, image) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostGenerateImage, nil
}

// TransformImage replaces the image background from a prompt. The source is
// either a fresh upload or an already-hosted public ID.
func (s *MediaService) TransformImage(ctx context.Context, userID uint, file *multipart.FileHeader, publicID, prompt string) (*models.Image, int, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, 0, apperr.Validation("Missing image or prompt")
	}

	user, err := s.ensureCredits(userID, CostImageTransform)
	if err != nil {
		return nil, 0, err
	}

	publicID, secureURL, archiveKey, uploaded, err := s.resolveSource(ctx, userID, file, publicID, "mediamorph/uploads")
	if err != nil {
		return nil, 0, err
	}

	image := &models.Image{
		UserID:         userID,
		PublicID:       publicID,
		SecureURL:      secureURL,
		TransformedURL: s.uploader.BackgroundReplaceURL(publicID, prompt),
		Type:           models.ImageTransformed,
		ArchiveKey:     archiveKey,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "image_transform",
			"prompt":    prompt,
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostImageTransform, "Generative background replace", map[string]interface{}{
		"image_id":  image.ID,
		"public_id": image.PublicID,
		"operation": "image_transform",
	}, func() { s.compensateImage(ctx, image, uploaded) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostImageTransform, nil
}

// ReplaceObject swaps one object for another in the image via the generative
// replace transformation.
func (s *MediaService) ReplaceObject(ctx context.Context, userID uint, file *multipart.FileHeader, from, to string) (*models.Image, int, error) {
	if file == nil || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, 0, apperr.Validation("Missing file or prompt")
	}

	user, err := s.ensureCredits(userID, CostGenerativeReplace)
	if err != nil {
		return nil, 0, err
	}

	publicID, secureURL, archiveKey, _, err := s.resolveSource(ctx, userID, file, "", "mediamorph/replace")
	if err != nil {
		return nil, 0, err
	}

	image := &models.Image{
		UserID:         userID,
		PublicID:       publicID,
		SecureURL:      secureURL,
		TransformedURL: s.uploader.GenerativeReplaceURL(publicID, from, to),
		Type:           models.ImageReplaced,
		ArchiveKey:     archiveKey,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "generative_replace",
			"from":      from,
			"to":        to,
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostGenerativeReplace, "Generative object replace", map[string]interface{}{
		"image_id":  image.ID,
		"public_id": image.PublicID,
		"operation": "generative_replace",
	}, func() { s.compensateImage(ctx, image, true) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostGenerativeReplace, nil
}

// ExtendImage pads the image to a wider canvas and fills the new area from
// the prompt.
func (s *MediaService) ExtendImage(ctx context.Context, userID uint, file *multipart.FileHeader, prompt string, width, height int) (*models.Image, int, error) {
	if file == nil || strings.TrimSpace(prompt) == "" {
		return nil, 0, apperr.Validation("Missing file or prompt")
	}
	if width <= 0 {
		width = defaultExtendWidth
	}
	if height <= 0 {
		height = defaultExtendHeight
	}

	user, err := s.ensureCredits(userID, CostImageExtend)
	if err != nil {
		return nil, 0, err
	}

	publicID, secureURL, archiveKey, _, err := s.resolveSource(ctx, userID, file, "", "mediamorph/uploads")
	if err != nil {
		return nil, 0, err
	}

	image := &models.Image{
		UserID:         userID,
		PublicID:       publicID,
		SecureURL:      secureURL,
		TransformedURL: s.uploader.GenerativeFillURL(publicID, prompt, width, height),
		Type:           models.ImageExtended,
		ArchiveKey:     archiveKey,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "image_extend",
			"prompt":    prompt,
			"width":     width,
			"height":    height,
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostImageExtend, "Generative image extend", map[string]interface{}{
		"image_id":  image.ID,
		"public_id": image.PublicID,
		"operation": "image_extend",
	}, func() { s.compensateImage(ctx, image, true) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostImageExtend, nil
}

func (s *MediaService) RemoveBackground(ctx context.Context, userID uint, file *multipart.FileHeader, publicID string) (*models.Image, int, error) {
	user, err := s.ensureCredits(userID, CostRemoveBackground)
	if err != nil {
		return nil, 0, err
	}

	publicID, secureURL, archiveKey, uploaded, err := s.resolveSource(ctx, userID, file, publicID, "mediamorph/uploads")
	if err != nil {
		return nil, 0, err
	}

	image := &models.Image{
		UserID:         userID,
		PublicID:       publicID,
		SecureURL:      secureURL,
		TransformedURL: s.uploader.BackgroundRemovalURL(publicID),
		Type:           models.ImageBackgroundRemoved,
		ArchiveKey:     archiveKey,
		Metadata: models.MetadataJSON(map[string]interface{}{
			"operation": "remove_background",
		}),
	}
	if err := s.images.Create(image); err != nil {
		return nil, 0, err
	}

	err = s.debitOrCompensate(userID, CostRemoveBackground, "Background removal", map[string]interface{}{
		"image_id":  image.ID,
		"public_id": image.PublicID,
		"operation": "remove_background",
	}, func() { s.compensateImage(ctx, image, uploaded) })
	if err != nil {
		return nil, 0, err
	}

	return image, user.Credits - CostRemoveBackground, nil
}

func (s *MediaService) GetUserImages(userID uint) ([]models.Image, error) {
	return s.images.ListByUser(userID, 0)
}

func (s *MediaService) GetUserVideos(userID uint) ([]models.Video, error) {
	return s.videos.ListByUser(userID, 0)
}

// resolveSource yields a hosted public ID for the operation: uploads the
// file when one was sent, otherwise trusts the provided public ID. The bool
// reports whether this call performed the upload (and so owns cleanup).
func (s *MediaService) resolveSource(ctx context.Context, userID uint, file *multipart.FileHeader, publicID, folder string) (string, string, string, bool, error) {
	if file == nil {
		if publicID == "" {
			return "", "", "", false, apperr.Validation("No image provided")
		}
		return publicID, s.uploader.DeliveryURL(publicID), "", false, nil
	}

	data, err := readUpload(file, isValidImageType)
	if err != nil {
		return "", "", "", false, err
	}

	archiveKey := s.archiveOriginal(ctx, userID, file.Filename, data)

	result, err := s.uploader.UploadImage(ctx, bytes.NewReader(data), file.Filename, folder)
	if err != nil {
		return "", "", "", false, apperr.External("Image upload failed", err)
	}
	return result.PublicID, result.SecureURL, archiveKey, true, nil
}

// archiveOriginal copies the raw upload to R2. Archive failures do not block
// the operation; the media host copy is authoritative.
func (s *MediaService) archiveOriginal(ctx context.Context, userID uint, filename string, data []byte) string {
	key := fmt.Sprintf("originals/%d/%d-%s", userID, time.Now().UnixNano(), filename)
	if err := s.archive.Put(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		s.logger.Warn("failed to archive original upload",
			zap.Uint("user_id", userID),
			zap.String("key", key),
			zap.Error(err),
		)
		return ""
	}
	return key
}

func (s *MediaService) removeImageArtifact(ctx context.Context, image *models.Image) {
	if err := s.images.Delete(image.ID); err != nil {
		s.logger.Error("failed to delete image row during compensation",
			zap.Uint("image_id", image.ID), zap.Error(err))
	}
	if image.PublicID != "" {
		if err := s.uploader.Destroy(ctx, image.PublicID, "image"); err != nil {
			s.logger.Warn("failed to destroy remote image during compensation",
				zap.String("public_id", image.PublicID), zap.Error(err))
		}
	}
}

func (s *MediaService) removeVideoArtifact(ctx context.Context, video *models.Video) {
	if err := s.videos.Delete(video.ID); err != nil {
		s.logger.Error("failed to delete video row during compensation",
			zap.Uint("video_id", video.ID), zap.Error(err))
	}
	if err := s.uploader.Destroy(ctx, video.PublicID, "video"); err != nil {
		s.logger.Warn("failed to destroy remote video during compensation",
			zap.String("public_id", video.PublicID), zap.Error(err))
	}
}

// compensateImage deletes the result row, and the remote asset only when
// this operation uploaded it; assets referenced by public ID belong to an
// earlier, already-paid operation.
func (s *MediaService) compensateImage(ctx context.Context, image *models.Image, ownsAsset bool) {
	if !ownsAsset {
		if err := s.images.Delete(image.ID); err != nil {
			s.logger.Error("failed to delete image row during compensation",
				zap.Uint("image_id", image.ID), zap.Error(err))
		}
		return
	}
	s.removeImageArtifact(ctx, image)
}

func readUpload(file *multipart.FileHeader, validType func(string) bool) ([]byte, error) {
	if file.Size > maxUploadSize {
		return nil, apperr.Validation("File size too large")
	}
	if !validType(file.Header.Get("Content-Type")) {
		return nil, apperr.Validation("Unsupported file type")
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apperr.Validation("Empty file")
	}
	return data, nil
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	return validTypes[contentType]
}

func isValidVideoType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

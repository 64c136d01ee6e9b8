package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"carrental-backend/internal/domains/car/model"
	"carrental-backend/internal/infrastructure/storage"
	"carrental-backend/internal/shared/utils"
	"carrental-backend/pkg/logger"

	"github.com/google/uuid"
)

const imageKeyPrefix = "cars"

// ImageUploadService validates, normalizes and stores an uploaded photo.
// The returned path is the object key later sent in a car's images list.
type ImageUploadService struct {
	processor *storage.ImageProcessor
	storage   ObjectStorage
	newKey    func(filename string) string
}

func NewImageUploadService(processor *storage.ImageProcessor, store ObjectStorage) *ImageUploadService {
	if processor == nil {
		processor = storage.NewImageProcessor()
	}
	return &ImageUploadService{
		processor: processor,
		storage:   store,
		newKey:    objectKey,
	}
}

var _ ImageService = (*ImageUploadService)(nil)

func (s *ImageUploadService) UploadImage(ctx context.Context, filename string, data []byte) (*model.UploadedImage, error) {
	if err := s.processor.ValidateImage(data); err != nil {
		return nil, model.NewValidationError(err)
	}

	normalized, err := s.processor.Normalize(data)
	if err != nil {
		return nil, model.NewValidationError(err)
	}

	key := s.newKey(filename)
	url, err := s.storage.Upload(ctx, key, normalized, "image/jpeg")
	if err != nil {
		logger.ErrorWithFields("image upload failed", err, map[string]interface{}{"key": key})
		return nil, model.NewStoreError(model.CodeCreateFailed, "Failed to store image", err)
	}

	logger.Info("image uploaded", map[string]interface{}{"key": key, "bytes": len(normalized)})
	return &model.UploadedImage{URL: url, Path: key}, nil
}

// objectKey builds cars/<uuid>-<name>.jpg; images are always re-encoded to JPEG
func objectKey(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = utils.GenerateSlug(base)
	if base == "" {
		return fmt.Sprintf("%s/%s.jpg", imageKeyPrefix, uuid.NewString())
	}
	return fmt.Sprintf("%s/%s-%s.jpg", imageKeyPrefix, uuid.NewString(), base)
}

package controllers

import (
	"errors"
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/storage"
	"shelfcontrol/backend/utils"
)

type StorageController struct {
	Bucket storage.Bucket
	Signer *storage.Signer
	Logger *zap.Logger
}

func NewStorageController(bucket storage.Bucket, signer *storage.Signer, logger *zap.Logger) *StorageController {
	return &StorageController{Bucket: bucket, Signer: signer, Logger: logger}
}

// GetAvatar godoc
// @Summary Serve an avatar through a signed URL
// @Tags storage
// @Produce image/*
// @Param key path string true "Object key"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /storage/avatars/{key} [get]
func (sc *StorageController) GetAvatar(c *fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil || !storage.ValidKey(key) {
		return utils.NotFound(c, "Object not found")
	}

	if err := sc.Signer.Verify(key, c.Query("token")); err != nil {
		return utils.Forbidden(c, "Invalid or expired token")
	}

	obj, err := sc.Bucket.Open(c.UserContext(), key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return utils.NotFound(c, "Object not found")
	}
	if err != nil {
		sc.Logger.Error("open avatar", zap.String("key", key), zap.Error(err))
		return utils.InternalServerError(c, "Failed to read object")
	}

	c.Type(filepath.Ext(key))
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.SendStream(obj)
}

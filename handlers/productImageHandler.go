package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 5 << 20

const thumbnailWidth = 200

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadProductImage stores the original under products/{id}/ and a jpeg
// thumbnail under products/{id}/thumbnails/, then points the product at the
// original's public URL.
func UploadProductImage(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if _, err := models.GetProduct(ctx, id); err != nil {
		RespondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, &utils.ValidationError{Message: "file is required"})
		return
	}
	if fileHeader.Size > maxImageSize {
		RespondError(c, &utils.ValidationError{Message: "file exceeds the 5MB limit"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := imageContentTypes[contentType]
	if !ok {
		RespondError(c, &utils.ValidationError{Message: "unsupported image type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		RespondError(c, err)
		return
	}
	if len(data) > maxImageSize {
		RespondError(c, &utils.ValidationError{Message: "file exceeds the 5MB limit"})
		return
	}

	baseName := strings.TrimSuffix(filepath.Base(fileHeader.Filename), filepath.Ext(fileHeader.Filename))
	objectName := fmt.Sprintf("products/%d/%s%s", id, baseName, ext)
	if err := utils.UploadBytesToGCS(ctx, objectName, data, contentType); err != nil {
		config.LogError(config.GetLogger(), "handlers", "UploadProductImage", "upload original", objectName, err)
		RespondError(c, err)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		RespondError(c, &utils.ValidationError{Message: "file is not a valid image"})
		return
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG); err != nil {
		RespondError(c, err)
		return
	}
	thumbName := fmt.Sprintf("products/%d/thumbnails/%s.jpg", id, baseName)
	if err := utils.UploadBytesToGCS(ctx, thumbName, thumbBuf.Bytes(), "image/jpeg"); err != nil {
		config.LogError(config.GetLogger(), "handlers", "UploadProductImage", "upload thumbnail", thumbName, err)
		RespondError(c, err)
		return
	}

	imageUrl := utils.PublicObjectURL(objectName)
	product, err := models.UpdateProduct(ctx, id, &models.UpdateProductInput{ImageUrl: &imageUrl})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":       product,
		"image_url":     imageUrl,
		"thumbnail_url": utils.PublicObjectURL(thumbName),
	})
}

package util

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/h2non/bimg"
)

// SNIFF_LENGTH is what http.DetectContentType looks at.
const SNIFF_LENGTH = 512

// ReadMediaItem loads an uploaded attachment into memory. Size is taken
// from the header so the moderation gate can refuse an oversized body
// without it being loaded; the body itself is read with a hard cap.
func ReadMediaItem(fileHeader *multipart.FileHeader, maxSize int64) (model.MediaItem, error) {
	item := model.MediaItem{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}

	src, err := fileHeader.Open()
	if err != nil {
		return item, err
	}
	defer src.Close()

	// Oversized bodies are only sniffed, never loaded.
	limit := maxSize + 1
	if fileHeader.Size > maxSize {
		limit = SNIFF_LENGTH
	}

	data, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil {
		return item, err
	}

	if item.ContentType == "" || item.ContentType == "application/octet-stream" {
		item.ContentType = http.DetectContentType(data)
	}

	if fileHeader.Size > maxSize {
		return item, nil
	}

	item.Data = data
	item.Size = int64(len(data))

	return item, nil
}

// ProcessCommentMedia normalises an already screened attachment to WebP.
func ProcessCommentMedia(item model.MediaItem, fieldName string) (*bytes.Reader, int64, error) {
	err := model.ValidateMediaItem(item, fieldName)
	if err != nil {
		return nil, 0, err
	}

	webBuf, err := ConvertToWebP(item.Data, 80, 1280, 1280)
	if err != nil {
		return nil, 0, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Failed to process image. File may be corrupted or not a valid image",
			Param:   fieldName,
		}
	}

	return bytes.NewReader(webBuf.Bytes()), int64(webBuf.Len()), nil
}

// ConvertToWebP fits the image inside maxW x maxH keeping its aspect ratio.
func ConvertToWebP(data []byte, quality int, maxW int, maxH int) (*bytes.Buffer, error) {
	image := bimg.NewImage(data)

	size, err := image.Size()
	if err != nil {
		return nil, err
	}

	options := bimg.Options{
		Quality: quality,
		Type:    bimg.WEBP,
	}

	if size.Width > maxW || size.Height > maxH {
		options.Width = maxW
		options.Height = maxH
		options.Embed = false
		options.Crop = false
	}

	output, err := image.Process(options)
	if err != nil {
		return nil, err
	}

	return bytes.NewBuffer(output), nil
}

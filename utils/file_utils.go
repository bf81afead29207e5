package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Base URL for serving files
	baseURL = "/uploads"
	// Maximum file size (10MB)
	maxFileSize    = 10 * 1024 * 1024
	thumbnailWidth = 320
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	return unsafeChars.ReplaceAllString(filepath.Base(filename), "")
}

// ValidateImageType checks if the file extension is an allowed image format
func ValidateImageType(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// InitializeStorage creates the upload directories
func InitializeStorage(baseDir string) error {
	for _, dir := range []string{
		filepath.Join(baseDir, "payment-proofs"),
		filepath.Join(baseDir, "thumbnails"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// StoredImage is the location of a saved image and its thumbnail
type StoredImage struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// SaveImage stores an uploaded image under baseDir/subDir with a random name
// and writes a JPEG thumbnail next to it.
func SaveImage(baseDir, subDir string, fileData []byte, filename string) (*StoredImage, error) {
	if len(fileData) > maxFileSize {
		return nil, fmt.Errorf("file too large. Maximum size is %d bytes", maxFileSize)
	}
	cleanName := cleanFilename(filename)
	if err := ValidateImageType(cleanName); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(fileData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	name := uuid.New().String()
	storedName := name + strings.ToLower(filepath.Ext(cleanName))
	fullPath := filepath.Join(baseDir, subDir, storedName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, fileData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %v", fullPath, err)
	}

	// Resize to max width of 320px while maintaining aspect ratio
	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %v", err)
	}
	thumbName := fmt.Sprintf("thumbnails/%s.jpg", name)
	fullThumbPath := filepath.Join(baseDir, thumbName)
	if err := os.MkdirAll(filepath.Dir(fullThumbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %v", err)
	}
	if err := os.WriteFile(fullThumbPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to save thumbnail: %v", err)
	}

	cleanSubDir := strings.Trim(subDir, "/")
	return &StoredImage{
		URL:          fmt.Sprintf("%s/%s/%s", baseURL, cleanSubDir, storedName),
		ThumbnailURL: fmt.Sprintf("%s/%s", baseURL, thumbName),
	}, nil
}

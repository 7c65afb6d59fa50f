package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ---------------- ADD PHOTOS ----------------
func AddPhotos(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		eventID := c.Param("id")

		if _, err := d.Store.Get(ctx, eventID); err != nil {
			storeError(c, err, "fetch event")
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		files := form.File["photos"] // key must be "photos"
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no photos uploaded"})
			return
		}
		for _, fh := range files {
			ct := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
			if !allowedPhotoTypes[ct] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type", "file": fh.Filename})
				return
			}
		}

		var uris []string
		for _, fh := range files {
			file, err := fh.Open()
			if err != nil {
				discardPhotos(d, uris)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
				return
			}

			uri, err := d.Photos.Save(ctx, file, fh)
			file.Close()
			if err != nil {
				log.WithError(err).WithField("file", fh.Filename).Error("photo upload failed")
				discardPhotos(d, uris)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "image upload failed",
					"file":  fh.Filename,
				})
				return
			}
			uris = append(uris, uri)
		}

		event, err := d.Store.AddPhotos(ctx, eventID, uris)
		if err != nil {
			discardPhotos(d, uris)
			storeError(c, err, "add photos")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "photos uploaded",
			"photos":  event.Photos,
		})
	}
}

// discardPhotos removes uploads that never made it onto an event.
func discardPhotos(d *Deps, uris []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, uri := range uris {
		if err := d.Photos.Delete(ctx, uri); err != nil {
			log.WithError(err).WithField("photo", uri).Warn("could not discard photo")
		}
	}
}

// ---------------- DELETE PHOTO ----------------
func DeletePhoto(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo index"})
			return
		}

		removed, err := d.Store.RemovePhoto(c.Request.Context(), c.Param("id"), index)
		if err != nil {
			storeError(c, err, "delete photo")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.Photos.Delete(ctx, removed); err != nil {
			log.WithError(err).WithField("photo", removed).Warn("could not delete photo from storage")
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "photo deleted",
			"index":   index,
		})
	}
}

package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// ServeImage serves a stored original or processed image by filename.
// Both /uploads and /processed read from the upload directory; processed
// images carry the processed_ prefix.
func (c *Controller) ServeImage(ctx echo.Context) error {
	filename := ctx.Param("filename")

	if !safeFilename(filename) {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Invalid filename",
		})
	}

	return ctx.File(filepath.Join(c.Settings.Upload.Path, filename))
}

// safeFilename rejects names that could escape the upload directory.
func safeFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

package http

import (
	"io"
	"net/http"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/logger"
	"chronofeed/pkg/middleware"
	"chronofeed/pkg/pagination"
	"chronofeed/services/social/internal/entity"

	"github.com/gin-gonic/gin"
)

// Paging holds the page size defaults of list endpoints.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paging) parse(c *gin.Context) (page, limit int) {
	return pagination.Parse(c.Query("page"), c.Query("limit"), p.DefaultLimit, p.MaxLimit)
}

// respondError writes the error body for err. Upstream failures are logged
// here and reported without detail.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := apperror.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, apperror.Response(err))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, apperror.ErrorResponse{Error: message, Code: string(apperror.KindValidation)})
}

func viewerEmail(c *gin.Context) string {
	return c.GetString(middleware.ContextUserEmail)
}

// readUpload reads a multipart file field of at most max bytes.
func readUpload(c *gin.Context, field string, max int64) (entity.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return entity.Upload{}, apperror.Validation("No file provided")
	}
	if fh.Size > max {
		return entity.Upload{}, apperror.Validationf("file exceeds %d bytes", max)
	}

	f, err := fh.Open()
	if err != nil {
		return entity.Upload{}, apperror.Validation("Failed to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return entity.Upload{}, apperror.Validation("Failed to read file")
	}
	return entity.Upload{Filename: fh.Filename, Data: data}, nil
}

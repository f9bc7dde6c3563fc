package server

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/pipeline"
)

// MaxUploadSize caps one uploaded document at 25MB.
const MaxUploadSize = 25 * 1024 * 1024

var allowedUploadMimes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
}

// handleUploadDocument ingests one document and queues it for extraction.
// POST /v1/companies/:id/documents, multipart with a "file" field.
// The upload is staged in a temp file which is removed on every exit path.
func (s *Server) handleUploadDocument(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1024*1024)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, common.NewAppError("MISSING_FILE", "file field is required", common.ErrInvalidInput))
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(fileHeader.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.respondError(c, common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, common.WrapError(err, "open uploaded file"))
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "bc-upload-*")
	if err != nil {
		s.respondError(c, common.WrapError(err, "stage upload"))
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload temp file", "path", tmpPath, "error", err)
		}
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		if err == nil {
			err = closeErr
		}
		s.respondError(c, common.WrapError(err, "write upload"))
		return
	}
	hash := hasher.Sum(nil)

	// Server-side MIME detection; extension alone is not trusted.
	mt, err := mimetype.DetectFile(tmpPath)
	if err != nil || !allowedUploadMimes[mt.String()] {
		detected := ""
		if mt != nil {
			detected = mt.String()
		}
		s.respondError(c, common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported content type %q", detected), common.ErrInvalidInput))
		return
	}

	storagePath := filepath.Join(s.deps.Config.Storage.DocumentDir, companyID.String(),
		fmt.Sprintf("%x.%s", hash, ext))
	if err := os.MkdirAll(filepath.Dir(storagePath), 0o750); err != nil {
		s.respondError(c, common.WrapError(err, "create document dir"))
		return
	}
	if err := copyFile(tmpPath, storagePath); err != nil {
		s.respondError(c, common.WrapError(err, "store document"))
		return
	}

	doc, existed, err := s.deps.Documents.UpsertByHash(c.Request.Context(), companyID,
		fileHeader.Filename, ext, int(size), hash, storagePath, time.Now().UTC())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if existed {
		s.metrics.uploads.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"document": doc, "duplicate": true})
		return
	}

	if err := s.deps.Queue.Enqueue(c.Request.Context(), pipeline.Job{DocumentID: doc.ID}); err != nil {
		s.respondError(c, err)
		return
	}
	s.metrics.uploads.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusAccepted, gin.H{"document": doc, "duplicate": false, "status": "queued"})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) handleListDocuments(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid company id", common.ErrInvalidInput))
		return
	}
	docs, err := s.deps.Documents.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleListDocumentJobs(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid document id", common.ErrInvalidInput))
		return
	}
	jobs, err := s.deps.Jobs.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleGetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, common.NewAppError("INVALID_ID", "invalid job id", common.ErrInvalidInput))
		return
	}
	job, err := s.deps.Jobs.GetByID(c.Request.Context(), jobID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	log "github.com/sirupsen/logrus"
)

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

func fileAndUser(c *fiber.Ctx) (uint, uint, error) {
	userID, err := currentUser(c)
	if err != nil {
		return 0, 0, err
	}
	fileID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return fileID, userID, nil
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// Upload takes a multipart form: arquivo plus optional nome, pasta, tags
// (comma separated), publico and arquivo_pai_id.
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	fh, err := c.FormFile("arquivo")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "Campo arquivo é obrigatório")
	}
	input := service.UploadInput{
		Name:         c.FormValue("nome"),
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Folder:       c.FormValue("pasta"),
		Tags:         splitTags(c.FormValue("tags")),
		Public:       c.FormValue("publico") == "true",
	}
	if raw := c.FormValue("arquivo_pai_id"); raw != "" {
		parent, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parent == 0 {
			return httpx.FromError(c, service.Validation("arquivo_pai_id inválido"))
		}
		id := uint(parent)
		input.ParentID = &id
	}

	body, err := fh.Open()
	if err != nil {
		return httpx.FromError(c, err)
	}
	defer body.Close()

	file, err := h.fileService.Upload(c.UserContext(), groupID, userID, input, body)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Arquivo enviado com sucesso", file)
}

func (h *FileHandler) ListByGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	files, err := h.fileService.ListByGroup(groupID, userID, c.Query("pasta"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", files)
}

func (h *FileHandler) Get(c *fiber.Ctx) error {
	fileID, userID, err := fileAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	file, err := h.fileService.Get(fileID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", file)
}

func (h *FileHandler) ListVersions(c *fiber.Ctx) error {
	fileID, userID, err := fileAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	files, err := h.fileService.ListVersions(fileID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", files)
}

func (h *FileHandler) Update(c *fiber.Ctx) error {
	fileID, userID, err := fileAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateFileInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	file, err := h.fileService.Update(fileID, userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Arquivo atualizado", file)
}

func (h *FileHandler) Delete(c *fiber.Ctx) error {
	fileID, userID, err := fileAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.fileService.Delete(fileID, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Arquivo excluído", nil)
}

func isMissingObject(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject"
	}
	return false
}

// Download streams the object body. Objects are immutable, so the storage
// ETag is served as a strong validator.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	fileID, userID, err := fileAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	file, obj, st, err := h.fileService.Open(c.UserContext(), fileID, userID)
	if err != nil {
		if isMissingObject(err) {
			return httpx.FromError(c, service.NotFound("Arquivo não encontrado"))
		}
		return httpx.FromError(c, err)
	}

	if st.ETag != "" && notModified(c, "\""+st.ETag+"\"") {
		_ = obj.Close()
		return c.SendStatus(fiber.StatusNotModified)
	}
	h.fileService.RecordDownload(file)
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format(time.RFC1123))
	}
	c.Set("Cache-Control", "private, max-age=3600")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	if st.ContentType != "" {
		c.Type(st.ContentType)
	} else {
		c.Set(fiber.HeaderContentType, file.MimeType)
	}

	key := file.StorageKey
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()

		n, copyErr := io.Copy(w, obj)
		flushErr := w.Flush()
		entry := log.WithFields(log.Fields{"key": key, "bytes": n})
		if copyErr != nil {
			entry.WithError(copyErr).Warn("file stream interrupted")
			return
		}
		if flushErr != nil {
			entry.WithError(flushErr).Warn("file stream flush failed")
			return
		}
		entry.Debug("file streamed")
	})
	return nil
}

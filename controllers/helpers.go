package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/database"
	"github.com/em0-omg/pdf-highlight-api/logger"
	"github.com/em0-omg/pdf-highlight-api/models"
	"github.com/em0-omg/pdf-highlight-api/overlay"
	"github.com/em0-omg/pdf-highlight-api/raster"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// readPDFUpload pulls the uploaded PDF out of the multipart form field
// "file". Rejects non-.pdf filenames and uploads over the size limit.
func readPDFUpload(r *http.Request) ([]byte, string, int, error) {
	maxMB := int64(config.GetEnvInt("MAX_UPLOAD_MB", 50))
	limit := maxMB << 20

	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, "", http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err)
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("missing form field 'file'")
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return nil, "", http.StatusBadRequest, errors.New("only .pdf files are accepted")
	}
	if fh.Size > limit {
		return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d MB limit", maxMB)
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d MB limit", maxMB)
	}
	if len(data) == 0 {
		return nil, "", http.StatusBadRequest, errors.New("uploaded file is empty")
	}

	return data, fh.Filename, 0, nil
}

// formInt reads an integer form/query value with a fallback.
func formInt(r *http.Request, key string, fallback int) int {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// contentDisposition builds an attachment header safe for non-ASCII names.
func contentDisposition(filename string) string {
	ascii := make([]rune, 0, len(filename))
	for _, r := range filename {
		if r < 32 || r > 126 || r == '"' || r == '\\' {
			ascii = append(ascii, '_')
			continue
		}
		ascii = append(ascii, r)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		string(ascii), url.PathEscape(filename))
}

// fileStem strips the extension from an uploaded filename.
func fileStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// upsertDocument records an upload, deduplicated by content hash.
func upsertDocument(fileName string, data []byte, pageCount int) (*models.Document, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	var doc models.Document
	err := database.DB.
		Where(models.Document{SHA256: hash}).
		Attrs(models.Document{
			FileName:  filepath.Base(fileName),
			SizeBytes: int64(len(data)),
			PageCount: pageCount,
		}).
		FirstOrCreate(&doc).Error
	if err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	if doc.PageCount == 0 && pageCount > 0 {
		doc.PageCount = pageCount
		if err := database.DB.Save(&doc).Error; err != nil {
			logger.Warn("Failed to backfill document page count", "document_id", doc.ID, "error", err)
		}
	}

	return &doc, nil
}

// highlightParams validates the query, shape, and dpi form values.
func highlightParams(r *http.Request) (query, shape string, dpi int, errMsg string) {
	query = strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		return "", "", 0, "form field 'query' is required"
	}

	shape = strings.ToLower(strings.TrimSpace(r.FormValue("shape")))
	if shape == "" {
		shape = overlay.ShapeRect
	}
	if !overlay.ValidShape(shape) {
		return "", "", 0, "shape must be 'rect' or 'circle'"
	}

	dpi = raster.ClampDPI(formInt(r, "dpi", raster.DefaultDPI))
	return query, shape, dpi, ""
}

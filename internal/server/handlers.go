package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/store"
)

func (s *Server) healthz(c *gin.Context) {
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "database_unavailable", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) preview(c *gin.Context) {
	req, ok := s.bindUpload(c)
	if !ok {
		return
	}
	out, err := s.importer.Preview(c.Request.Context(), req)
	if err != nil {
		s.respondImportError(c, err, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createImport(c *gin.Context) {
	req, ok := s.bindUpload(c)
	if !ok {
		return
	}
	res, err := s.importer.Import(c.Request.Context(), req)
	if err != nil {
		var out *csvimport.Output
		if res != nil {
			out = res.Output
		}
		s.respondImportError(c, err, out)
		return
	}
	status := http.StatusCreated
	if res.DryRun {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (s *Server) listImports(c *gin.Context) {
	opts, ok := pageOpts(c)
	if !ok {
		return
	}
	batches, err := s.importer.Batches(c.Request.Context(), opts)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "list_imports_failed", err)
		return
	}
	if batches == nil {
		batches = []store.ImportBatch{}
	}
	c.JSON(http.StatusOK, gin.H{"imports": batches})
}

func (s *Server) getImport(c *gin.Context) {
	b, err := s.importer.Batch(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "import_not_found", fmt.Errorf("import %q not found", c.Param("id")))
	case err != nil:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "load_import_failed", err)
	default:
		c.JSON(http.StatusOK, b)
	}
}

func (s *Server) getRawUpload(c *gin.Context) {
	data, err := s.importer.RawUpload(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "import_not_found", fmt.Errorf("import %q not found", c.Param("id")))
	case errors.Is(err, importer.ErrNotArchived):
		respondError(c, http.StatusNotFound, "upload_not_archived", err)
	case err != nil:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "load_upload_failed", err)
	default:
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}

func (s *Server) listQuestions(c *gin.Context) {
	opts, ok := pageOpts(c)
	if !ok {
		return
	}
	qs, err := s.importer.Questions(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidRequest) {
			respondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "list_questions_failed", err)
		return
	}
	if qs == nil {
		qs = []store.Question{}
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

// bindUpload reads the CSV from a multipart "file" field or the raw body,
// plus the query parameters. On failure it has already responded.
func (s *Server) bindUpload(c *gin.Context) (importer.Request, bool) {
	var req importer.Request
	filename, data, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "upload_too_large", errTooLarge(tooLarge.Limit))
			return req, false
		}
		respondError(c, http.StatusBadRequest, "bad_upload", err)
		return req, false
	}
	if len(data) == 0 {
		respondError(c, http.StatusBadRequest, "bad_upload", errors.New("upload is empty"))
		return req, false
	}

	req.Filename = filename
	req.Content = string(data)
	req.SkillType = param(c, "skill_type")
	req.SkillTestID = param(c, "skill_test_id")

	for name, dst := range map[string]*bool{"enrich": &req.Enrich, "dry_run": &req.DryRun} {
		v := param(c, name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("%s must be a boolean", name))
			return req, false
		}
		*dst = b
	}
	return req, true
}

func readUpload(c *gin.Context) (string, []byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("read form file: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("open form file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("read form file: %w", err)
		}
		return fh.Filename, data, nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return c.Query("filename"), data, nil
}

// param prefers the query string, then multipart form values.
func param(c *gin.Context, name string) string {
	if v, ok := c.GetQuery(name); ok {
		return v
	}
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return c.PostForm(name)
	}
	return ""
}

func pageOpts(c *gin.Context) (store.QueryOpts, bool) {
	var opts store.QueryOpts
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("%s must be a non-negative integer", name))
			return opts, false
		}
		*dst = n
	}
	return opts, true
}

func (s *Server) respondImportError(c *gin.Context, err error, out *csvimport.Output) {
	var herr *csvimport.HeaderError
	switch {
	case errors.As(err, &herr):
		env := envelope("invalid_header", err)
		env.Output = out
		c.JSON(http.StatusUnprocessableEntity, env)
	case errors.Is(err, importer.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "import_failed", err)
	}
}

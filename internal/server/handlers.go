package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/render"
)

// uploadSlack is the room left for multipart framing on top of the file
// size limit.
const uploadSlack = 1 << 20

// sniffLen is how much of an oversized file is read. Enough for the media
// type to be detected; the size check fails first anyway.
const sniffLen = 512

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	st := s.ctl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.opts.Version,
		"phase":   st.Phase.String(),
		"clients": s.hub.ClientCount(),
	})
}

// State returns the current view.
func (s *Server) State(c *gin.Context) {
	s.view(c, s.ctl.Snapshot())
}

// Upload takes a multipart form with the image in field "file".
func (s *Server) Upload(c *gin.Context) {
	limit := s.ctl.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+uploadSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			s.view(c, s.ctl.Reject(fmt.Errorf("%w: %v", imaging.ErrTooLarge, err)))
		case errors.Is(err, http.ErrMissingFile):
			st, _ := s.ctl.LoadFile(nil)
			s.view(c, st)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload: " + err.Error()})
		}
		return
	}

	upload, err := readFormFile(fh, limit)
	if err != nil {
		s.view(c, s.ctl.Reject(err))
		return
	}

	st, _ := s.ctl.LoadFile(upload)
	s.view(c, st)
}

// readFormFile reads an uploaded file. Files over limit are only read far
// enough for their type to be sniffed; their declared size is kept so the
// size check rejects them.
func readFormFile(fh *multipart.FileHeader, limit int64) (*imaging.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if fh.Size > limit {
		r = io.LimitReader(f, sniffLen)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &imaging.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

// Analyze runs a prediction and answers when it completes.
//
// The prediction is not cancelled if the client goes away; the response
// still updates the state that other viewers see.
func (s *Server) Analyze(c *gin.Context) {
	st, err := s.ctl.Analyze(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, controller.ErrSuperseded) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"view":  s.renderer.View(st),
		})
		return
	}
	s.view(c, st)
}

// Toggle flips one label's visibility.
func (s *Server) Toggle(c *gin.Context) {
	id, ok := labelID(c)
	if !ok {
		return
	}
	s.view(c, s.ctl.Toggle(id))
}

// ShowAll selects every label.
func (s *Server) ShowAll(c *gin.Context) {
	s.view(c, s.ctl.ShowAll())
}

// HideAll clears the selection.
func (s *Server) HideAll(c *gin.Context) {
	s.view(c, s.ctl.HideAll())
}

// Crop serves one label's region of the picture as PNG. The zoom factor is
// taken from ?scale= and defaults to 2.
func (s *Server) Crop(c *gin.Context) {
	id, ok := labelID(c)
	if !ok {
		return
	}

	scale := 0.0
	if v := c.Query("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scale must be a positive number"})
			return
		}
		scale = f
	}

	res, err := s.renderer.CropLabel(s.ctl.Snapshot(), id, scale)
	if err != nil {
		s.notFound(c, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, res.MimeType, data)
}

// Canvas serves the annotated canvas. With ?download=1 it is sent as an
// attachment.
func (s *Server) Canvas(c *gin.Context) {
	data, uploadID := s.surface.PNG()
	if data == nil {
		s.notFound(c, render.ErrNoPicture)
		return
	}
	if download, _ := strconv.ParseBool(c.Query("download")); download {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.DownloadName(uploadID)))
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Report returns the findings summary.
func (s *Server) Report(c *gin.Context) {
	rep, err := s.renderer.Report(s.ctl.Snapshot(), time.Now())
	if err != nil {
		s.notFound(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) view(c *gin.Context, st controller.State) {
	c.JSON(http.StatusOK, s.renderer.View(st))
}

func (s *Server) notFound(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, render.ErrNoPicture) || errors.Is(err, render.ErrUnknownLabel) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func labelID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid label id"})
		return 0, false
	}
	return id, true
}

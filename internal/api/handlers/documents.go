package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/openmobiletts/internal/document"
	"github.com/nikhilbhutani/openmobiletts/internal/metrics"
	"github.com/nikhilbhutani/openmobiletts/internal/textproc"
	"github.com/nikhilbhutani/openmobiletts/pkg/textextract"
)

// multipartOverhead is the allowance for boundaries and part headers on
// top of the file size limit.
const multipartOverhead = 64 << 10

type DocumentHandler struct {
	docs    *document.Service
	pre     *textproc.Preprocessor
	tts     *TTSHandler
	metrics *metrics.Metrics
}

func NewDocumentHandler(docs *document.Service, pre *textproc.Preprocessor, tts *TTSHandler, m *metrics.Metrics) *DocumentHandler {
	return &DocumentHandler{docs: docs, pre: pre, tts: tts, metrics: m}
}

type uploadResponse struct {
	Filename   string `json:"filename"`
	Text       string `json:"text"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload extracts the text of the multipart "file" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.receive(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Filename:   doc.Filename,
		Text:       doc.Text,
		ChunkCount: len(h.pre.Process(doc.Text)),
	})
}

// Stream extracts the uploaded document and speaks it.
func (h *DocumentHandler) Stream(w http.ResponseWriter, r *http.Request) {
	voice, speed, err := h.tts.voiceParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, ok := h.receive(w, r)
	if !ok {
		return
	}

	segments := h.pre.Process(doc.Text)
	if len(segments) == 0 {
		writeError(w, http.StatusBadRequest, document.ErrNoText.Error())
		return
	}

	h.tts.stream(w, r, "document", segments, voice, speed)
}

// receive reads the first "file" part of a multipart body through the
// document service. On failure it has already written the response.
func (h *DocumentHandler) receive(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.docs.MaxBytes()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
		return nil, false
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "file required")
			return nil, false
		}
		if err != nil {
			h.writeUploadError(w, err)
			return nil, false
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		doc, err := h.docs.Extract(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			h.writeUploadError(w, err)
			return nil, false
		}
		h.metrics.ObserveUpload(doc.Size)
		return doc, true
	}
}

func (h *DocumentHandler) writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, document.ErrTooLarge), errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size: "+formatSize(h.docs.MaxBytes()))
	case errors.Is(err, textextract.ErrUnsupportedFormat),
		errors.Is(err, document.ErrNoText),
		errors.Is(err, document.ErrUnreadable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("document upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not process upload")
	}
}

func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

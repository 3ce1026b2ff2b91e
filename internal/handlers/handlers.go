package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/fungi-api/internal/admission"
	"github.com/Brownie44l1/fungi-api/internal/imaging"
	"github.com/Brownie44l1/fungi-api/internal/model"
	"github.com/Brownie44l1/fungi-api/internal/upload"
)

// Predictor runs the model on one preprocessed batch.
type Predictor interface {
	Predict(ctx context.Context, input []float32) (*model.Prediction, error)
}

type Options struct {
	Preprocess       imaging.Options
	InferenceTimeout time.Duration
	MaxUploadBytes   int64
	Classes          int
}

type Handler struct {
	predictor Predictor
	gate      *admission.Gate
	spool     *upload.Spool
	opts      Options
	logger    *zap.Logger
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewHandler(predictor Predictor, gate *admission.Gate, spool *upload.Spool, opts Options, logger *zap.Logger) *Handler {
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = 30 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		predictor: predictor,
		gate:      gate,
		spool:     spool,
		opts:      opts,
		logger:    logger,
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "classes": h.opts.Classes})
}

func (h *Handler) Predict(c *gin.Context) {
	if !h.admit(c) {
		return
	}

	part, filename, ext, err := h.filePart(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(c, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, upload.ErrEmptyFilename):
			writeError(c, http.StatusBadRequest, "No selected file")
		case errors.Is(err, upload.ErrInvalidType):
			writeError(c, http.StatusBadRequest, "Invalid file type")
		default:
			writeError(c, http.StatusBadRequest, "No file provided")
		}
		return
	}

	path, size, cleanup, err := h.spool.Save(part, ext)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.logger.Error("failed to save upload", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "File could not be read")
		return
	}
	defer cleanup()

	img, format, err := imaging.DecodeFile(path)
	if err != nil {
		h.logger.Info("unreadable upload", zap.String("filename", filename), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "File could not be read")
		return
	}
	h.logger.Debug("decoded upload",
		zap.String("format", format),
		zap.Int64("bytes", size),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	inputData := imaging.Tensor(img, h.opts.Preprocess)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.InferenceTimeout)
	defer cancel()

	result, err := h.predictor.Predict(ctx, inputData)
	if err != nil {
		h.logger.Error("prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Prediction failed", Details: err.Error()})
		return
	}

	h.logger.Debug("prediction",
		zap.String("label", result.Label),
		zap.Int("index", result.Index),
		zap.Float32("score", result.Score))
	c.JSON(http.StatusOK, model.PredictionResponse{Prediction: result.Label})
}

// admit writes the 403/429 response itself and reports whether to go on.
func (h *Handler) admit(c *gin.Context) bool {
	err := h.gate.Admit(c.Request.Context(), c.GetHeader("x-api-key"), c.ClientIP())
	if err == nil {
		return true
	}

	var limited *admission.RateLimitedError
	switch {
	case errors.Is(err, admission.ErrUnauthorized):
		writeError(c, http.StatusForbidden, "Unauthorized access")
	case errors.As(err, &limited):
		writeError(c, http.StatusTooManyRequests, fmt.Sprintf("Wait for %d seconds", limited.Seconds()))
	default:
		h.logger.Error("admission check failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "Internal server error")
	}
	return false
}

// filePart walks the multipart body up to the first file part named "file"
// and returns it unread, with its filename and validated extension. Text
// fields named "file" are skipped, as they are not uploads.
func (h *Handler) filePart(c *gin.Context) (*multipart.Part, string, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, "", "", upload.ErrNoFile
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", "", upload.ErrNoFile
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, "", "", err
			}
			return nil, "", "", upload.ErrNoFile
		}
		if part.FormName() != "file" {
			continue
		}
		filename, isFile := upload.FileName(part)
		if !isFile {
			continue
		}

		ext, err := upload.Extension(filename)
		if err != nil {
			return nil, "", "", err
		}
		return part, filename, ext, nil
	}
}

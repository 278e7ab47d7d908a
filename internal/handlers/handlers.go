package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/digit-api/internal/bitmap"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/recognizer"
)

// maxUploadSize bounds multipart uploads (10MB).
const maxUploadSize = 10 << 20

type Handler struct {
	recognizer *recognizer.Recognizer
	classes    []string
}

func NewHandler(r *recognizer.Recognizer, classes []string) *Handler {
	return &Handler{
		recognizer: r,
		classes:    classes,
	}
}

// Router wires the handler onto a new gin engine.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), enableCORS())

	router.GET("/health", h.Health)
	router.POST("/predict", h.Predict)
	router.POST("/predict/image", h.PredictFromImage)
	return router
}

func enableCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an ID, echoed in the response and
// attached to the log entry.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			if u, err := uuid.NewV4(); err == nil {
				id = u.String()
			}
		}
		c.Header(requestIDHeader, id)

		c.Next()
		log.WithFields(log.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
		}).Debug("request served")
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Predict classifies a grid that the client already normalized.
func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid JSON", Code: recognizer.StatusUnknown})
		return
	}

	result, err := h.recognizer.RecognizeGrid(req.Grid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.response(result))
}

func (h *Handler) PredictFromImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: "No image file provided. Use 'image' as the form field name",
			Code:  recognizer.StatusFileOpen,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Failed to read upload", Code: recognizer.StatusFileOpen})
		return
	}

	log.WithFields(log.Fields{
		"file": fileHeader.Filename,
		"size": fileHeader.Size,
	}).Debug("received image")

	var result *recognizer.Result
	if bitmap.IsPNG(data) {
		result, err = h.recognizer.RecognizeReader(bytes.NewReader(data))
	} else {
		img, decodeErr := imaging.Decode(bytes.NewReader(data))
		if decodeErr != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error: "Invalid image format. Supported: PNG, JPEG, GIF, BMP, TIFF",
				Code:  recognizer.StatusSignatureMismatch,
			})
			return
		}
		result, err = h.recognizer.RecognizeImage(img)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.response(result))
}

func (h *Handler) response(result *recognizer.Result) model.PredictionResponse {
	resp := model.PredictionResponse{
		Digit:      result.Digit,
		Confidence: result.Confidence,
		Scores:     result.Scores,
	}
	if result.Digit < len(h.classes) {
		resp.Class = h.classes[result.Digit]
	}
	return resp
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := recognizer.Status(err)
	status := http.StatusBadRequest
	if code == recognizer.StatusInference || code == recognizer.StatusUnknown {
		status = http.StatusInternalServerError
	}
	log.WithError(err).WithField("code", code).Error("recognition failed")
	c.JSON(status, model.ErrorResponse{Error: err.Error(), Code: code})
}

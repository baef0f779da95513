package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickbite/internal/chat"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/validation"
	"quickbite/internal/storage"
)

type messageRequest struct {
	Text string `json:"text"`
}

// bindValidated reads the body, checks it against schema and decodes it into
// dst. It writes the error response and returns false on failure.
func (s *Server) bindValidated(c *gin.Context, schema string, dst interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		s.abortWithError(c, apperrors.NewInvalidRequestError("request body is required"))
		return false
	}
	result, err := validation.Validate(schema, raw)
	if err != nil {
		s.abortWithError(c, apperrors.NewInvalidRequestError(err.Error()))
		return false
	}
	if !result.Valid {
		abortInvalid(c, result)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.abortWithError(c, apperrors.NewInvalidRequestError(err.Error()))
		return false
	}
	return true
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if !s.bindValidated(c, validation.SchemaChatMessage, &req) {
		return
	}
	sess := currentSession(c)
	ctx := c.Request.Context()

	out := chat.NewTranscript()
	s.deps.Assistant.HandleMessage(ctx, chat.ChatMessage{
		Role:           sess.Role,
		UserIdentifier: sess.UserIdentifier,
		SessionID:      sess.ID,
		Text:           req.Text,
	}, out)
	s.recordTurn(c, "message")

	c.JSON(http.StatusOK, out.Snapshot())
}

// postImage accepts a multipart "image" file, stores it and asks the
// assistant to match it. A form field "imageRef" may name an already hosted
// image instead.
func (s *Server) postImage(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	if err := c.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "image is too large",
				"code":  apperrors.ErrCodeInvalidRequest,
			})
			return
		}
		s.abortWithError(c, apperrors.NewInvalidRequestError("malformed upload"))
		return
	}

	imageRef := c.Request.FormValue("imageRef")
	file, header, err := c.Request.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if s.deps.Images == nil {
			imageRef = ""
			break
		}
		imageRef, err = s.deps.Images.Upload(ctx, sess.UserIdentifier, header.Header.Get("Content-Type"), file, header.Size)
		if errors.Is(err, storage.ErrUnsupportedImage) {
			s.abortWithError(c, apperrors.NewInvalidRequestError("image must be JPEG, PNG, WebP or GIF"))
			return
		}
		if err != nil {
			s.abortWithError(c, err)
			return
		}
	case imageRef != "":
	default:
		s.abortWithError(c, apperrors.NewInvalidRequestError("an image file or imageRef is required"))
		return
	}

	out := chat.NewTranscript()
	s.deps.Assistant.HandleImageUpload(ctx, sess.Role, sess.UserIdentifier, imageRef, out)
	s.recordTurn(c, "image")

	c.JSON(http.StatusOK, out.Snapshot())
}

func (s *Server) confirmPriceEdit(c *gin.Context) {
	var req chat.ConfirmationPayload
	if !s.bindValidated(c, validation.SchemaPriceEditConfirm, &req) {
		return
	}
	sess := currentSession(c)

	out := chat.NewTranscript()
	s.deps.Assistant.ConfirmPriceEdit(c.Request.Context(), sess.Role, sess.UserIdentifier, req.ItemName, req.NewPrice, out)
	s.recordTurn(c, "confirm-price-edit")

	c.JSON(http.StatusOK, out.Snapshot())
}

func (s *Server) recordTurn(c *gin.Context, operation string) {
	if s.deps.Observability != nil {
		s.deps.Observability.RecordTurn(c.Request.Context(), "http", operation)
	}
}

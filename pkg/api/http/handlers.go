package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const jsonContentType = "application/json; charset=utf-8"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	status := s.health.Status()
	code := http.StatusOK
	state := "healthy"
	if !status.Healthy {
		code = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(code, gin.H{
		"status": state,
		"checks": gin.H{
			"store": status,
		},
	})
}

// handleListSubmodels returns all submodels
func (s *Server) handleListSubmodels(c *gin.Context) {
	submodels, err := s.submodels.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, submodels)
}

// handleGetSubmodel returns one submodel in the requested content variant
func (s *Server) handleGetSubmodel(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	content, err := submodel.ParseContent(c.Query("content"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	doc, err := s.submodels.Get(c.Request.Context(), id, content)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, jsonContentType, doc)
}

// handleCreateSubmodel stores a new submodel
func (s *Server) handleCreateSubmodel(c *gin.Context) {
	sm, ok := s.readSubmodel(c)
	if !ok {
		return
	}

	created, err := s.submodels.Create(c.Request.Context(), sm)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", c.FullPath()+"/"+submodel.EncodeID(created.ID()))
	c.Data(http.StatusCreated, jsonContentType, created.Bytes())
}

// handleUpdateSubmodel replaces an existing submodel
func (s *Server) handleUpdateSubmodel(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	sm, ok := s.readSubmodel(c)
	if !ok {
		return
	}

	if err := s.submodels.Update(c.Request.Context(), id, sm); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleDeleteSubmodel removes a submodel
func (s *Server) handleDeleteSubmodel(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.submodels.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// pathID decodes the :id path parameter
func (s *Server) pathID(c *gin.Context) (string, bool) {
	id, err := submodel.DecodeID(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return "", false
	}
	return id, true
}

// readSubmodel reads and parses the request body
func (s *Server) readSubmodel(c *gin.Context) (*submodel.Submodel, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: ErrorDetail{
					Code:    "PAYLOAD_TOO_LARGE",
					Message: "request body too large",
				},
			})
			return nil, false
		}
		s.writeError(c, err)
		return nil, false
	}

	sm, err := submodel.Parse(body)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	return sm, true
}

// writeError maps repository errors to HTTP responses
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := "internal server error"

	switch {
	case errors.Is(err, submodel.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, submodel.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, submodel.ErrBadRequest):
		status, code, message = http.StatusBadRequest, "BAD_REQUEST", err.Error()
	default:
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dataset"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeMissingField     = "missing_field"
	CodeEmptyAfterFilter = "empty_after_filter"
	CodeInternal         = "internal"
)

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// ErrorBody is the error envelope returned by every API route.
type ErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func classify(err error) (int, string) {
	var br badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, analysis.ErrUnknownMethod):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, dataset.ErrMissingField):
		return http.StatusUnprocessableEntity, CodeMissingField
	case errors.Is(err, analysis.ErrEmptyAfterFilter):
		return http.StatusNotFound, CodeEmptyAfterFilter
	}
	return http.StatusInternalServerError, CodeInternal
}

func (s *Server) fail(ctx *gin.Context, section string, err error) {
	status, code := classify(err)
	if code != CodeBadRequest {
		s.metrics.failuresVec.WithLabelValues(section, code).Inc()
	}
	var body ErrorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	ctx.AbortWithStatusJSON(status, body)
}

package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/apperror"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Code:    apperror.CodeOf(err),
		Data:    nil,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindRule, apperror.KindTransition, apperror.KindNotOccupied:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError writes err with the status its kind maps to. Coordination
// failures and unclassified errors go to ErrorLogger; coordination failures
// are flagged for operators.
func RespondAppError(c *gin.Context, err error) {
	code := StatusFor(err)
	switch kind := apperror.KindOf(err); {
	case kind == apperror.KindCoordination:
		ErrorLogger.WithFields(logrus.Fields{
			"coordination_failure": true,
			"code":                 apperror.CodeOf(err),
			"path":                 c.Request.URL.Path,
			"request_id":           c.GetString(RequestIDKey),
		}).Error(err.Error())
	case code == http.StatusInternalServerError:
		ErrorLogger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(RequestIDKey),
		}).Error(err.Error())
	}
	RespondError(c, code, err)
}

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

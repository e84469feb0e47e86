package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/validation"
)

// envelope is the request body shape: every write carries its fields
// under "data".
type envelope struct {
	Data validation.Fields `json:"data"`
}

func bindData(c *gin.Context) (validation.Fields, error) {
	var body envelope
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, apperror.Validation(apperror.CodeMalformedValue, "request body is not valid JSON: %v", err)
	}
	if body.Data == nil {
		return nil, apperror.Validation(apperror.CodeMissingField, "Request body must have a data property.")
	}
	return body.Data, nil
}

// idParam parses a positive id path parameter. Anything else names a record
// that cannot exist.
func idParam(c *gin.Context, name, label string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("%s %s cannot be found.", label, raw)
	}
	return uint(id), nil
}

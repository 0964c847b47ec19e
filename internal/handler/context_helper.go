package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/UniversalTze/FormBase/pkg/errors"
)

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

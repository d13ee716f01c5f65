package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contentTypeJSON          = "application/json"
	maxStrictBodyBytes int64 = 1 << 20 // Keep parser bound aligned with global body limit.
)

func bindStrictJSON(c echo.Context, dst interface{}) error {
	if !strings.HasPrefix(strings.ToLower(c.Request().Header.Get(echo.HeaderContentType)), contentTypeJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, msgContentTypeJSONRequired)
	}

	body := io.LimitReader(c.Request().Body, maxStrictBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	return nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(paramID))
	if err != nil {
		return uuid.Nil, apperrors.Validation(msgInvalidID)
	}
	return id, nil
}

// queryBool treats an absent or malformed flag as false.
func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}

// bindOptionalJSON leaves dst untouched when the request has no body.
func bindOptionalJSON(c echo.Context, dst interface{}) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	return bindStrictJSON(c, dst)
}

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YungFritz/kyys-letters/pkg/remote"
	"github.com/labstack/echo/v4"
)

type saveRequest struct {
	Slug   string          `json:"slug"`
	Data   json.RawMessage `json:"data"`
	Access string          `json:"access"`
}

type saveResponse struct {
	OK  bool   `json:"ok"`
	Key string `json:"key"`
	URL string `json:"url"`
}

type listResponse struct {
	OK    bool            `json:"ok"`
	Items []remote.Object `json:"items"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// handleSave stores the JSON payload under series/<slug>.json.
func (s *Server) handleSave(c echo.Context) error {
	var req saveRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body")
	}
	if req.Slug == "" {
		return fail(c, http.StatusBadRequest, "Missing slug")
	}

	payload := []byte("{}")
	if len(req.Data) > 0 && string(req.Data) != "null" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, req.Data, "", "  "); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid data")
		}
		payload = buf.Bytes()
	}

	key := remote.SeriesKey(req.Slug)
	obj, err := s.bucket.Put(c.Request().Context(), key, payload, "application/json; charset=utf-8", req.Access != "private")
	if err != nil {
		return bucketFailure(c, err)
	}
	return c.JSON(http.StatusOK, saveResponse{OK: true, Key: obj.Key, URL: obj.URL})
}

// handleRead returns the stored JSON for ?key= as-is.
func (s *Server) handleRead(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return fail(c, http.StatusBadRequest, "Missing key")
	}
	payload, err := s.bucket.Get(c.Request().Context(), key)
	if err != nil {
		return bucketFailure(c, err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, payload)
}

func (s *Server) handleList(c echo.Context) error {
	items, err := s.bucket.List(c.Request().Context(), remote.SeriesPrefix)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listResponse{OK: true, Items: items})
}

func (s *Server) handleDelete(c echo.Context) error {
	var req struct {
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body")
	}
	if req.Slug == "" {
		return fail(c, http.StatusBadRequest, "Missing slug")
	}
	if err := s.bucket.Delete(c.Request().Context(), remote.SeriesKey(req.Slug)); err != nil {
		return bucketFailure(c, err)
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func bucketFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, remote.ErrInvalidKey):
		return fail(c, http.StatusBadRequest, "Invalid key")
	default:
		return fail(c, http.StatusInternalServerError, err.Error())
	}
}

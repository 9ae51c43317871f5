package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/labstack/echo/v4"
)

const imagesPath = "/api/images/"

// presentRef turns a blob reference into a URL served by handleImage.
func presentRef(ref data.ImageRef) data.ImageRef {
	if key, ok := ref.BlobKey(); ok {
		return data.ImageRef(imagesPath + url.PathEscape(key))
	}
	return ref
}

func presentSeries(series data.Series) data.Series {
	series.Cover = presentRef(series.Cover)
	chapters := make([]data.Chapter, len(series.Chapters))
	for i, c := range series.Chapters {
		pages := make([]data.ImageRef, len(c.Pages))
		for j, p := range c.Pages {
			pages[j] = presentRef(p)
		}
		c.Pages = pages
		chapters[i] = c
	}
	series.Chapters = chapters
	return series
}

// summary drops chapter pages from list responses.
func summary(series []data.Series) []data.Series {
	out := make([]data.Series, len(series))
	for i, item := range series {
		item = presentSeries(item)
		for j := range item.Chapters {
			item.Chapters[j].Pages = nil
		}
		out[i] = item
	}
	return out
}

func limitParam(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

func (s *Server) handleListSeries(c echo.Context) error {
	if tag := c.QueryParam("tag"); tag != "" {
		return c.JSON(http.StatusOK, summary(s.store.FilterByTag(tag)))
	}
	if c.QueryParam("hot") == "1" {
		return c.JSON(http.StatusOK, summary(s.store.Hot()))
	}
	return c.JSON(http.StatusOK, summary(s.store.ListSeries()))
}

func (s *Server) handleGetSeries(c echo.Context) error {
	series, ok := s.store.FindBySlug(c.Param("slug"))
	if !ok {
		return fail(c, http.StatusNotFound, "Not found")
	}
	return c.JSON(http.StatusOK, presentSeries(series))
}

func (s *Server) handleView(c echo.Context) error {
	series, ok := s.store.FindBySlug(c.Param("slug"))
	if !ok {
		return fail(c, http.StatusNotFound, "Not found")
	}
	if err := s.store.RecordView(series.ID, c.QueryParam("chapter")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (s *Server) handlePopular(c echo.Context) error {
	return c.JSON(http.StatusOK, summary(s.store.Popular(limitParam(c))))
}

func (s *Server) handleLatest(c echo.Context) error {
	entries := s.store.Latest(limitParam(c))
	for i := range entries {
		entries[i].Series.Cover = presentRef(entries[i].Series.Cover)
		entries[i].Chapter.Pages = nil
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")
	if fuzzy, _ := strconv.ParseBool(c.QueryParam("fuzzy")); fuzzy {
		return c.JSON(http.StatusOK, summary(s.store.FuzzySearch(q)))
	}
	return c.JSON(http.StatusOK, summary(s.store.Search(q)))
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Stats())
}

// handleImage serves the payload behind a blob reference.
func (s *Server) handleImage(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid key")
	}
	content, contentType, err := s.store.OpenImage(c.Request().Context(), data.BlobRef(key))
	if err != nil {
		return err
	}
	if content == nil {
		return fail(c, http.StatusNotFound, "Not found")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, contentType, content)
}

// handleObject serves a payload registered with the object URL registry.
func (s *Server) handleObject(c echo.Context) error {
	content, contentType, ok := s.urls.ResolveToken(c.Param("token"))
	if !ok {
		return fail(c, http.StatusNotFound, "Not found")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, contentType, content)
}

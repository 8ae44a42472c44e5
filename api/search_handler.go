package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatvault/api/search"
	"github.com/papercomputeco/chatvault/pkg/archive"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 5): number of results to return
//   - source (optional): only return conversations from this platform
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		return badRequest(c, "query parameter is required")
	}

	topK := archive.DefaultSearchLimit
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "top_k must be a positive integer")
		}
		topK = parsed
	}

	output, err := s.searcher.Search(c.Context(), search.Input{
		Query:  query,
		TopK:   topK,
		Source: c.Query("source"),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(output)
}

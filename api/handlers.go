package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatvault/api/ingest"
	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/cas"
	"github.com/papercomputeco/chatvault/pkg/records"
	"github.com/papercomputeco/chatvault/pkg/worker"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// QueuedResponse is returned for asynchronous archive requests.
type QueuedResponse struct {
	Queued  []string `json:"queued"`
	Dropped []string `json:"dropped"`
}

// HistoryResponse lists every archived version of a conversation.
type HistoryResponse struct {
	ID      string                    `json:"id"`
	Records []*archive.MetadataRecord `json:"records"`
	Count   int                       `json:"count"`
}

// ContentResponse carries archived turns.
type ContentResponse struct {
	Key      string     `json:"key"`
	Messages []cas.Turn `json:"messages"`
	Count    int        `json:"count"`
}

type retitleRequest struct {
	Title string `json:"title"`
}

// statusFor maps archive failure kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, archive.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, archive.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, archive.ErrEmbedding):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(ErrorResponse{
		Error: err.Error(),
		Kind:  archive.KindName(err),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleArchive handles POST /v1/archive.
// The body is a scraper export: one conversation object or an array of them.
// With ?async=true conversations are queued on the worker pool and the
// response is 202 Accepted.
func (s *Server) handleArchive(c *fiber.Ctx) error {
	convs, err := s.config.Reader.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return badRequest(c, err.Error())
	}

	if c.QueryBool("async") {
		if s.config.Pool == nil {
			return badRequest(c, "async archiving is not enabled")
		}

		resp := QueuedResponse{Queued: []string{}, Dropped: []string{}}
		for _, conv := range convs {
			if s.config.Pool.Enqueue(worker.Job{Conversation: conv, Origin: "api"}) {
				resp.Queued = append(resp.Queued, conv.ID)
			} else {
				resp.Dropped = append(resp.Dropped, conv.ID)
			}
		}
		return c.Status(fiber.StatusAccepted).JSON(resp)
	}

	out := ingest.Archive(c.Context(), s.archiver, convs, s.logger)
	if out.Count == 0 && len(out.Failed) > 0 {
		status := statusFor(out.FirstError())
		return c.Status(status).JSON(out)
	}
	return c.JSON(out)
}

// handleGetContent handles GET /v1/content/:key.
func (s *Server) handleGetContent(c *fiber.Ctx) error {
	key := c.Params("key")
	turns, err := s.archiver.RetrieveByReference(c.Context(), key)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(ContentResponse{
		Key:      key,
		Messages: turns,
		Count:    len(turns),
	})
}

// handleListRecords handles GET /v1/records?source=&limit=.
func (s *Server) handleListRecords(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 0 {
		return badRequest(c, "limit must not be negative")
	}

	list, err := s.archiver.Recent(c.Context(), records.ListOptions{
		Source: c.Query("source"),
		Limit:  limit,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(map[string]any{
		"records": list,
		"count":   len(list),
	})
}

// handleGetHistory handles GET /v1/records/:id.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	history, err := s.archiver.History(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(HistoryResponse{
		ID:      id,
		Records: history,
		Count:   len(history),
	})
}

// handleForget handles DELETE /v1/conversations/:id.
func (s *Server) handleForget(c *fiber.Ctx) error {
	if err := s.archiver.Forget(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleRetitle handles PATCH /v1/conversations/:id with {"title": "..."}.
func (s *Server) handleRetitle(c *fiber.Ctx) error {
	var req retitleRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "title is required")
	}

	id := c.Params("id")
	if err := s.archiver.Retitle(c.Context(), id, req.Title); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(map[string]string{
		"id":    id,
		"title": req.Title,
	})
}

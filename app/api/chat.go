package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio/app/service/chat"
	"portfolio/app/service/prompt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

type chatRequest struct {
	Query          string                `json:"query"`
	RelevantChunks string                `json:"relevantChunks"`
	UserHistory    []prompt.HistoryEntry `json:"userHistory"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query must be a non-empty string"})
	}

	if !s.chatSvc.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat service is not configured"})
	}

	key := c.IP()
	if s.quotaSvc.ReachedLimit(key) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "daily message limit reached"})
	}

	answer, usage, err := s.chatSvc.Ask(c.UserContext(), req.Query, req.RelevantChunks, req.UserHistory)
	if err != nil {
		slog.Error("Chat completion failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "failed to generate a response",
			"details": err.Error(),
		})
	}

	if _, err = s.quotaSvc.RecordUsage(key); err != nil {
		slog.Warn("Failed to record usage", "error", err)
	}

	return c.JSON(fiber.Map{
		"response": answer,
		"usage":    usage,
	})
}

func (s *Server) handleChatStream(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query must be a non-empty string"})
	}

	if !s.chatSvc.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat service is not configured"})
	}

	key := c.IP()
	if s.quotaSvc.ReachedLimit(key) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "daily message limit reached"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// the fiber context is pooled and must not be touched inside the stream
	// writer, everything it needs is captured here
	chatSvc := s.chatSvc
	quotaSvc := s.quotaSvc
	reqCtx := c.Context()
	query, chunks, history := req.Query, req.RelevantChunks, req.UserHistory

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		upstream, err := chatSvc.OpenStream(ctx, query, chunks, history)
		if err != nil {
			writeErrorEvent(w, err)
			return
		}
		defer upstream.Close()

		if _, err = quotaSvc.RecordUsage(key); err != nil {
			slog.Warn("Failed to record usage", "error", err)
		}

		var g errgroup.Group

		g.Go(func() error {
			defer cancel()

			return chat.Relay(ctx, upstream, w)
		})

		g.Go(func() error {
			select {
			case <-reqCtx.Done():
				// caller disconnected, abort the upstream fetch
				cancel()
			case <-ctx.Done():
			}

			return nil
		})

		if err = g.Wait(); err != nil {
			writeErrorEvent(w, err)
			return
		}

		_, _ = w.WriteString("data: [DONE]\n\n")
		_ = w.Flush()
	}))

	return nil
}

func (s *Server) handleChatLimit(c *fiber.Ctx) error {
	key := c.IP()
	record := s.quotaSvc.Usage(key)

	return c.JSON(fiber.Map{
		"count":          record.Count,
		"limit":          s.quotaSvc.Limit(),
		"remaining":      s.quotaSvc.Remaining(key),
		"resetTime":      s.quotaSvc.ResetTime().Format(time.RFC3339),
		"isLimitReached": s.quotaSvc.ReachedLimit(key),
	})
}

// writeErrorEvent emits the single terminal error frame of a failed stream.
// Write failures are ignored, the caller may already be gone.
func writeErrorEvent(w *bufio.Writer, err error) {
	payload, _ := json.Marshal(map[string]string{"message": err.Error()})

	_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
	_ = w.Flush()
}

package server

import (
	"github.com/gofiber/fiber/v2"
)

const headerCache = "X-Cache"

type summaryShape int

const (
	summaryText summaryShape = iota
	summaryWithTags
	summaryRecord
)

func (s *Server) parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return s.validate.Struct(out)
}

func setCacheHeader(c *fiber.Ctx, cached bool) {
	if cached {
		c.Set(headerCache, "HIT")
	} else {
		c.Set(headerCache, "MISS")
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.SendString("OK")
}

func (s *Server) debug(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ip":       c.IP(),
		"region":   s.opts.Region,
		"adapters": s.sources.Sources(),
		"calls":    s.sources.Stats(),
	})
}

func (s *Server) fullTranscript(c *fiber.Ctx) error {
	var req transcriptRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	res, err := s.service.Full(c.UserContext(), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) simpleTranscript(withLanguages bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transcriptRequest
		if err := s.parseBody(c, &req); err != nil {
			return err
		}

		res, err := s.service.Simple(c.UserContext(), req.URL, req.Lang)
		if err != nil {
			return err
		}
		if !withLanguages {
			res.Languages = nil
		}
		return c.JSON(res)
	}
}

func (s *Server) simpleTranscriptCached(c *fiber.Ctx) error {
	var req transcriptRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	res, err := s.service.SimpleCached(c.UserContext(), req.URL, req.Lang)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) smartTranscript(extended bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transcriptRequest
		if err := s.parseBody(c, &req); err != nil {
			return err
		}

		rec, cached, err := s.service.Smart(c.UserContext(), req.URL, req.Lang, extended)
		if err != nil {
			return err
		}
		setCacheHeader(c, cached)
		return c.JSON(rec)
	}
}

func (s *Server) smartSummary(shape summaryShape) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req summaryRequest
		if err := s.parseBody(c, &req); err != nil {
			return err
		}

		rec, cached, err := s.service.Summarize(c.UserContext(), req.URL, req.Model)
		if err != nil {
			return err
		}
		setCacheHeader(c, cached)

		switch shape {
		case summaryWithTags:
			return c.JSON(fiber.Map{"summary": rec.Summary, "tags": rec.Tags})
		case summaryRecord:
			return c.JSON(rec)
		default:
			return c.JSON(fiber.Map{"summary": rec.Summary})
		}
	}
}

func (s *Server) captions(c *fiber.Ctx) error {
	var q captionsQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := s.validate.Struct(q); err != nil {
		return err
	}

	res, err := s.service.Captions(c.UserContext(), q.VideoID, q.Lang)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

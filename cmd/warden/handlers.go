package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/samcorl/vfa-gallery-sub008/activity"
	"github.com/samcorl/vfa-gallery-sub008/actor"
	"github.com/samcorl/vfa-gallery-sub008/heuristics"
	"github.com/samcorl/vfa-gallery-sub008/moderation"
	"github.com/samcorl/vfa-gallery-sub008/ratelimit"
)

func (s *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// userID returns the authenticated user set by the gateway, or "" for
// anonymous traffic. Identity verification is the gateway's job.
func userID(c echo.Context) string {
	if uid, ok := c.Get(ratelimit.ContextUserID).(string); ok {
		return uid
	}
	return ""
}

// requireGoodStanding blocks gated actions for flagged and suspended actors.
// Accounts unknown to the directory pass: this deployment may not mirror the
// full user table.
func (s *Server) requireGoodStanding(c echo.Context, uid string) error {
	status, err := s.directory.GetStatus(c.Request().Context(), uid)
	if errors.Is(err, actor.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if status == actor.StatusFlagged || status == actor.StatusSuspended {
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "account is restricted from this action"}
	}
	return nil
}

// handleViewArtwork is the public-browsing stand-in: the gallery frontends sit
// behind the PUBLIC tier and only need the admission decision from here.
func (s *Server) handleViewArtwork(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "visible": true})
}

type loginBody struct {
	UserID string `json:"user_id"`
	Failed bool   `json:"failed"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var body loginBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	ctx := c.Request().Context()
	ip := c.RealIP()
	ua := c.Request().UserAgent()

	if body.Failed {
		s.recorder.Record(ctx, activity.Event{
			Action:    activity.ActionUserLoginFailed,
			IPAddress: ip,
			UserAgent: ua,
			Metadata:  map[string]any{"attempted_user": body.UserID},
		})
		if err := s.engine.ProcessAction(ctx, body.UserID, activity.ActionUserLoginFailed, ip, ua); err != nil {
			s.logger.Warn("post-login heuristics failed", "err", err)
		}
		return c.JSON(http.StatusOK, map[string]any{"recorded": true})
	}

	if body.UserID == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "user_id is required"}
	}
	// the IP history check must run before this login joins the history,
	// otherwise the current address always looks known
	if err := s.engine.ProcessAction(ctx, body.UserID, activity.ActionUserLogin, ip, ua); err != nil {
		s.logger.Warn("login heuristics failed", "err", err)
	}
	s.recorder.Record(ctx, activity.Event{
		ActorID:   &body.UserID,
		Action:    activity.ActionUserLogin,
		IPAddress: ip,
		UserAgent: ua,
	})
	return c.JSON(http.StatusOK, map[string]any{"recorded": true})
}

type artworkBody struct {
	GalleryID string `json:"gallery_id"`
	Title     string `json:"title"`
}

func (s *Server) handleCreateArtwork(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "authentication required"}
	}
	if err := s.requireGoodStanding(c, uid); err != nil {
		return err
	}
	var body artworkBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	ctx := c.Request().Context()

	// first-week accounts get the calendar-day cap on top of the upload tier
	createdAt, err := s.directory.CreatedAt(ctx, uid)
	if err == nil {
		res, terr := s.throttle.Check(ctx, uid, createdAt)
		if terr != nil {
			return terr
		}
		if res.Limited {
			c.Response().Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
			return &echo.HTTPError{Code: http.StatusTooManyRequests, Message: res.Reason}
		}
	} else if !errors.Is(err, actor.ErrNotFound) {
		return err
	}

	ip := c.RealIP()
	ua := c.Request().UserAgent()
	s.recorder.Record(ctx, activity.Event{
		ActorID:    &uid,
		Action:     activity.ActionArtworkCreated,
		EntityType: "artwork",
		EntityID:   body.GalleryID,
		Metadata:   map[string]any{"title": body.Title},
		IPAddress:  ip,
		UserAgent:  ua,
	})
	if err := s.engine.ProcessAction(ctx, uid, activity.ActionArtworkCreated, ip, ua); err != nil {
		s.logger.Warn("post-upload heuristics failed", "err", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"recorded": true})
}

func (s *Server) handleCreateGallery(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "authentication required"}
	}
	if err := s.requireGoodStanding(c, uid); err != nil {
		return err
	}
	ctx := c.Request().Context()
	ip := c.RealIP()
	ua := c.Request().UserAgent()
	s.recorder.Record(ctx, activity.Event{
		ActorID:    &uid,
		Action:     activity.ActionGalleryCreated,
		EntityType: "gallery",
		IPAddress:  ip,
		UserAgent:  ua,
	})
	if err := s.engine.ProcessAction(ctx, uid, activity.ActionGalleryCreated, ip, ua); err != nil {
		s.logger.Warn("post-create heuristics failed", "err", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"recorded": true})
}

type messageBody struct {
	RecipientID   string   `json:"recipient_id"`
	Body          string   `json:"body"`
	ToneScore     *float64 `json:"tone_score"`
	FlaggedReason *string  `json:"flagged_reason"`
}

func (s *Server) handleSendMessage(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "authentication required"}
	}
	if err := s.requireGoodStanding(c, uid); err != nil {
		return err
	}
	var body messageBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	if body.RecipientID == "" || body.Body == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "recipient_id and body are required"}
	}

	msg := moderation.Message{
		SenderID:      uid,
		RecipientID:   body.RecipientID,
		Body:          body.Body,
		ToneScore:     body.ToneScore,
		FlaggedReason: body.FlaggedReason,
	}
	if err := s.queue.Create(c.Request().Context(), &msg); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"id":     msg.ID,
		"status": msg.Status,
	})
}

func (s *Server) handleListQueue(c echo.Context) error {
	opts := moderation.ListOpts{
		FlaggedOnly: c.QueryParam("flagged") == "true" || c.QueryParam("flagged") == "1",
		SortByTone:  c.QueryParam("sort") == "tone",
	}
	if l := c.QueryParam("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid value for 'limit'"}
		}
		opts.Limit = v
	}
	if o := c.QueryParam("offset"); o != "" {
		v, err := strconv.Atoi(o)
		if err != nil {
			return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid value for 'offset'"}
		}
		opts.Offset = v
	}
	msgs, err := s.queue.ListPending(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": msgs})
}

func messageID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid message id"}
	}
	return uint(id), nil
}

func reviewer(c echo.Context) string {
	if r, ok := c.Get("reviewer").(string); ok {
		return r
	}
	return "admin"
}

func (s *Server) handleApprove(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return err
	}
	if err := s.queue.Approve(c.Request().Context(), id, reviewer(c)); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": moderation.StatusApproved})
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReject(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return err
	}
	var body rejectBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	if err := s.queue.Reject(c.Request().Context(), id, reviewer(c), body.Reason); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": moderation.StatusRejected})
}

type flagMessageBody struct {
	Reason string `json:"reason"`
}

func (s *Server) handleFlagMessage(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return err
	}
	var body flagMessageBody
	if err := c.Bind(&body); err != nil || body.Reason == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "reason is required"}
	}
	if err := s.queue.FlagMessage(c.Request().Context(), id, body.Reason); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"flagged": true})
}

type flagActorBody struct {
	Flag     string         `json:"flag"`
	Severity string         `json:"severity"`
	Details  map[string]any `json:"details"`
}

func (s *Server) handleFlagActor(c echo.Context) error {
	var body flagActorBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	if body.Flag == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "flag is required"}
	}
	sev, err := heuristics.ParseSeverity(body.Severity)
	if err != nil {
		return mapDomainError(err)
	}
	err = s.engine.Flag(c.Request().Context(), c.Param("id"), body.Flag, sev, body.Details,
		c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"flagged": true})
}

type clearFlagsBody struct {
	Notes string `json:"notes"`
}

func (s *Server) handleClearFlags(c echo.Context) error {
	var body clearFlagsBody
	if err := c.Bind(&body); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "invalid request body"}
	}
	if err := s.engine.ClearFlags(c.Request().Context(), c.Param("id"), reviewer(c), body.Notes); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"cleared": true})
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, moderation.ErrNotFound), errors.Is(err, heuristics.ErrNotFlagged):
		return &echo.HTTPError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, heuristics.ErrInvalidSeverity):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	return err
}

package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/staszek-kampania/backend/dto"
	"github.com/staszek-kampania/backend/model"
	"github.com/staszek-kampania/backend/shared"
)

// BasicDbHandler fronts the upstream list store. Forum threads
// (staszek-*) are the moderated namespace: every non-admin write is
// scored, folded into the sender's IP reputation and only published above
// the threshold. The contact box (pv-*) stores anything but is readable
// by the admin only.
type BasicDbHandler struct {
	licznikSvc    LicznikServiceInterface
	rateLimitSvc  RateLimitServiceInterface
	moderationSvc ModerationServiceInterface
	reputationSvc ReputationServiceInterface
}

const (
	maxElementLength = 4000
	maxCommentLength = 2200
)

func NewBasicDbHandler(
	licznikSvc LicznikServiceInterface,
	rateLimitSvc RateLimitServiceInterface,
	moderationSvc ModerationServiceInterface,
	reputationSvc ReputationServiceInterface,
) *BasicDbHandler {
	return &BasicDbHandler{
		licznikSvc:    licznikSvc,
		rateLimitSvc:  rateLimitSvc,
		moderationSvc: moderationSvc,
		reputationSvc: reputationSvc,
	}
}

func classifyKeyParam(c *fiber.Ctx) (shared.BasicDbKey, error) {
	key := shared.DecodePathSegment(c.Params("key"))
	classified, ok := shared.ClassifyBasicDbKey(key)
	if !ok {
		return shared.BasicDbKey{}, shared.ErrBadRequest("invalid_key")
	}
	return classified, nil
}

// @Summary Append an element to a basic-DB list
// @Description Forum elements go through moderation; rejected comments are never stored.
// @Tags basic-db
// @Produce json
// @Param key path string true "List key"
// @Param element path string true "Element (JSON {t,n,m} or plain text)"
// @Failure 403 {object} map[string]interface{} "comment_rejected / ip_banned"
// @Router /api/baza-podstawowa/dodaj/{key}/{element} [get]
func (h *BasicDbHandler) Append(c *fiber.Ctx) error {
	key, err := classifyKeyParam(c)
	if err != nil {
		return err
	}

	rawElement := shared.DecodePathSegment(c.Params("*"))
	if rawElement == "" {
		return shared.ErrBadRequest("invalid_element")
	}
	// The element travels in the URL path; keep it small.
	if len(rawElement) > maxElementLength {
		return shared.ErrPayloadTooLarge()
	}

	ip := shared.ClientIP(c)

	if allowed, retryAfter := h.rateLimitSvc.Requests().Hit(ip); !allowed {
		shared.RecordRateLimitRejection("requests")
		return shared.ErrRateLimited("requests", retryAfter)
	}
	if key.Moderated() {
		if allowed, retryAfter := h.rateLimitSvc.Comments().Hit(ip); !allowed {
			shared.RecordRateLimitRejection("comments")
			return shared.ErrRateLimited("comments", retryAfter)
		}
	}

	admin := shared.IsAdmin(c)

	if key.Moderated() && !admin && h.reputationSvc.IsBanned(ip) {
		return shared.ErrForbidden("ip_banned")
	}

	elementToStore := rawElement
	if key.Moderated() {
		if len(rawElement) > maxCommentLength {
			return shared.ErrPayloadTooLarge()
		}

		fields := dto.ExtractCommentFields(rawElement)
		mod := h.moderationSvc.Moderate(key.Name, fields.Name, fields.Message, admin)
		if !mod.OK {
			return moderationUnavailable(mod)
		}
		score := mod.Score

		if !admin {
			rep := h.reputationSvc.RecordScore(ip, score)
			if rep.Banned {
				return shared.ErrForbidden("ip_banned")
			}
			if score < shared.CommentMinPublishScore {
				return shared.ErrForbidden("comment_rejected").WithField("score", score)
			}
		}

		annotated, err := fields.Annotate(score, time.Now().UnixMilli())
		if err != nil {
			return shared.ErrBadRequest("invalid_element")
		}
		elementToStore = annotated
	}

	writePath := "/baza-podstawowa/dodaj/" + url.PathEscape(key.Name) + "/" + url.PathEscape(elementToStore)

	// Proxied by hand rather than via Proxy() so the forum "seen" counters
	// only move after a confirmed upstream write.
	up, err := h.licznikSvc.FetchText(withQuery(writePath, shared.StripKeyQuery(rawQuery(c))))
	if err != nil {
		log.WithError(err).Error("Proxy error")
		return shared.ErrUpstreamUnreachable()
	}

	if up.OK() && key.Moderated() {
		go h.reputationSvc.MarkForumIPSeen(key.Name, ip)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	if up.ContentType != "" {
		c.Set(fiber.HeaderContentType, up.ContentType)
	}
	return c.Status(up.Status).Send(up.Body)
}

// @Summary Read a basic-DB list
// @Description Contact-box reads require an admin token.
// @Tags basic-db
// @Produce json
// @Param key path string true "List key"
// @Router /api/baza-podstawowa/odczyt/{key} [get]
func (h *BasicDbHandler) Read(c *fiber.Ctx) error {
	key, err := classifyKeyParam(c)
	if err != nil {
		return err
	}

	if key.AdminReadOnly() && !shared.IsAdmin(c) {
		return shared.ErrUnauthorized("admin_required")
	}

	return h.licznikSvc.Proxy(c, "/baza-podstawowa/odczyt/"+url.PathEscape(key.Name), rawQuery(c))
}

// @Summary Delete an element from a basic-DB list
// @Tags basic-db
// @Produce json
// @Param key path string true "List key"
// @Param element path string true "Element to delete"
// @Failure 401 {object} map[string]string
// @Router /api/baza-podstawowa/usun/{key}/{element} [get]
func (h *BasicDbHandler) Delete(c *fiber.Ctx) error {
	key, err := classifyKeyParam(c)
	if err != nil {
		return err
	}

	ip := shared.ClientIP(c)
	if allowed, retryAfter := h.rateLimitSvc.Requests().Hit(ip); !allowed {
		shared.RecordRateLimitRejection("requests")
		return shared.ErrRateLimited("requests", retryAfter)
	}

	if !shared.IsAdmin(c) {
		return shared.ErrUnauthorized("admin_required")
	}

	element := c.Params("*")
	if element == "" {
		return shared.ErrBadRequest("invalid_element")
	}

	return h.licznikSvc.Proxy(c, "/baza-podstawowa/usun/"+url.PathEscape(key.Name)+"/"+element, rawQuery(c))
}

func moderationUnavailable(mod model.ModerationResult) *shared.AppError {
	hint := "Moderation failed."
	switch mod.ErrCode {
	case "missing_together_api_key":
		hint = "Set TOGETHER_API_KEY in backend env."
	case "together_unreachable":
		hint = "Together API unreachable from backend."
	case "together_error":
		hint = "Together API error."
		if mod.Status != 0 {
			hint = fmt.Sprintf("Together API error (HTTP %d).", mod.Status)
		}
	}
	return shared.NewAppError(http.StatusServiceUnavailable, "moderation_unavailable").WithHint(hint)
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/middleware"
	"github.com/richardklafter/PriceYakalytics/internal/report"
	"github.com/richardklafter/PriceYakalytics/internal/session"
	"github.com/richardklafter/PriceYakalytics/internal/tracking"
	"github.com/richardklafter/PriceYakalytics/internal/view"
)

const invalidIDMessage = "Tracking ids may only contain letters, digits, '.', '_' and '-'."

type Handler struct {
	sync    *tracking.Synchronizer
	reports report.Store
}

func NewHandler(sync *tracking.Synchronizer, reports report.Store) *Handler {
	return &Handler{sync: sync, reports: reports}
}

// RegisterRoutes mounts the dashboard on a group that already requires a
// session.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.index)
	r.POST("/", h.update)
	r.GET("/api/me", h.me)
}

type accountRow struct {
	ID          string
	SellerName  string
	Destination string
	HasTemplate bool
	TagID       string
}

func (h *Handler) index(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	data := gin.H{
		"Email":   sess.Email,
		"Subject": sess.Subject,
	}

	rep, err := h.reports.Take(c.Request.Context(), sess.Subject)
	if err != nil {
		logger.Warn("report read failed", map[string]any{
			"subject": sess.Subject,
			"error":   err,
		})
	}
	if rep != nil {
		data["Report"] = rep
	}

	accounts, err := h.sync.ListAccounts(c.Request.Context(), tokenOf(sess), sess.Subject)
	if err != nil {
		logger.Error("account listing failed", map[string]any{
			"subject": sess.Subject,
			"error":   err,
		})
		data["Error"] = "Could not load your stores from Zinc. Try again later."
		c.HTML(http.StatusBadGateway, view.IndexPage, data)
		return
	}

	rows := make([]accountRow, 0, len(accounts))
	for _, a := range accounts {
		row := accountRow{
			ID:          a.ID,
			SellerName:  a.SellerName,
			Destination: a.Destination,
			HasTemplate: a.HasTemplate,
		}
		if a.HasTemplate {
			row.TagID, _ = tracking.ExtractTagID(a.Template)
		}
		rows = append(rows, row)
	}

	currentID, hasID := tracking.CurrentTrackingID(accounts)
	data["Accounts"] = rows
	data["CurrentID"] = currentID
	data["HasID"] = hasID

	c.HTML(http.StatusOK, view.IndexPage, data)
}

// update applies the submitted tracking id to every store. An empty id
// removes tracking. The outcome is handed to the next GET through the
// report store.
func (h *Handler) update(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	ctx := c.Request.Context()

	newID := strings.TrimSpace(c.PostForm("gaId"))
	if err := tracking.ValidateTrackingID(newID); err != nil {
		logger.Warn("rejected tracking id", map[string]any{
			"subject": sess.Subject,
		})
		h.flash(c, sess.Subject, report.Report{TrackingID: newID, Message: invalidIDMessage})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	// Re-list so the rewrite starts from the templates as they are now.
	accounts, err := h.sync.ListAccounts(ctx, tokenOf(sess), sess.Subject)
	if err != nil {
		logger.Error("account listing failed", map[string]any{
			"subject": sess.Subject,
			"error":   err,
		})
		h.flash(c, sess.Subject, report.Report{TrackingID: newID, Message: "Could not load your stores from Zinc. Nothing was changed."})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	res, err := h.sync.SyncAccounts(ctx, tokenOf(sess), accounts, newID)
	if err != nil {
		msg := "The update failed. Nothing was changed."
		if errors.Is(err, tracking.ErrInvalidTrackingID) {
			msg = invalidIDMessage
		}
		h.flash(c, sess.Subject, report.Report{TrackingID: newID, Message: msg})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.flash(c, sess.Subject, report.FromResult(newID, res))
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) me(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sub":    sess.Subject,
		"email":  sess.Email,
		"expiry": sess.Expiry,
		"claims": sess.Claims,
	})
}

func (h *Handler) flash(c *gin.Context, subject string, rep report.Report) {
	if err := h.reports.Save(c.Request.Context(), subject, rep); err != nil {
		logger.Error("report save failed", map[string]any{
			"subject": subject,
			"error":   err,
		})
	}
}

func tokenOf(s *session.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
	}
}

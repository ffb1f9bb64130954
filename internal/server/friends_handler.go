package server

import (
	"context"
	"log/slog"
	"strings"

	"userdata/internal/models"
	"userdata/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// FriendsFinder looks up one page of a user's friends and incoming invitations.
type FriendsFinder interface {
	Friends(ctx context.Context, username string, req models.PageRequest, searchQuery *string) (*models.Page[models.UserJSON], error)
}

// FriendsHandler serves the paged friends list.
type FriendsHandler struct {
	finder   FriendsFinder
	logger   *slog.Logger
	defaults PageableDefaults
}

// NewFriendsHandler builds a handler that pages with defaults when the request omits them.
func NewFriendsHandler(finder FriendsFinder, logger *slog.Logger, defaults PageableDefaults) *FriendsHandler {
	return &FriendsHandler{finder: finder, logger: logger, defaults: defaults}
}

// Register mounts the handler's routes on r.
func (h *FriendsHandler) Register(r fiber.Router) {
	r.Get("/friends/all", h.GetFriends)
}

// GetFriends handles GET /internal/v3/friends/all
func (h *FriendsHandler) GetFriends(c *fiber.Ctx) error {
	ctx := c.UserContext()

	username := strings.Clone(c.Query("username"))
	if username == "" {
		return models.NewValidationError("Required request parameter 'username' is not present")
	}
	req := parsePageable(c, h.defaults)

	// Absent and empty are different: only an absent parameter becomes nil.
	var searchQuery *string
	if c.Context().QueryArgs().Has("searchQuery") {
		q := strings.Clone(c.Query("searchQuery"))
		searchQuery = &q
	}

	h.logger.DebugContext(ctx, "friends page requested",
		slog.String("username", username),
		slog.Int("page", req.Page),
		slog.Int("size", req.Size),
		slog.Bool("search", searchQuery != nil),
	)

	page, err := h.finder.Friends(ctx, username, req, searchQuery)
	if err != nil {
		return err
	}
	if page == nil {
		page = models.NewPage[models.UserJSON](nil, req, 0)
	}

	observability.PageContentSize.WithLabelValues("friends_all").Observe(float64(len(page.Content)))
	return c.JSON(models.NewPagedModel(page))
}

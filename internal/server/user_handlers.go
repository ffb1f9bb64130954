package server

import (
	"strings"

	"userdata/internal/models"
	"userdata/internal/observability"
	"userdata/internal/service"

	"github.com/gofiber/fiber/v2"
)

func requiredQuery(c *fiber.Ctx, name string) (string, error) {
	v := strings.Clone(c.Query(name))
	if v == "" {
		return "", models.NewValidationError("Required request parameter '" + name + "' is not present")
	}
	return v, nil
}

// CurrentUser handles GET /internal/v3/users/current
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	username, err := requiredQuery(c, "username")
	if err != nil {
		return err
	}
	user, err := s.userService.CurrentUser(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateUser handles POST /internal/v3/users/update
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var body models.UserJSON
	if err := c.BodyParser(&body); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	user, err := s.userService.UpdateUser(c.UserContext(), service.UpdateUserInput{
		Username:   body.Username,
		Firstname:  body.Firstname,
		Surname:    body.Surname,
		FullName:   body.FullName,
		Currency:   body.Currency,
		Photo:      body.Photo,
		PhotoSmall: body.PhotoSmall,
	})
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// AllUsers handles GET /internal/v3/users/all
func (s *Server) AllUsers(c *fiber.Ctx) error {
	username, err := requiredQuery(c, "username")
	if err != nil {
		return err
	}
	req := parsePageable(c, s.pageable())

	var searchQuery *string
	if c.Context().QueryArgs().Has("searchQuery") {
		q := strings.Clone(c.Query("searchQuery"))
		searchQuery = &q
	}

	page, err := s.userService.AllUsers(c.UserContext(), username, req, searchQuery)
	if err != nil {
		return err
	}
	observability.PageContentSize.WithLabelValues("users_all").Observe(float64(len(page.Content)))
	return c.JSON(models.NewPagedModel(page))
}

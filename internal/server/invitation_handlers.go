package server

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) usernamePair(c *fiber.Ctx) (string, string, error) {
	username, err := requiredQuery(c, "username")
	if err != nil {
		return "", "", err
	}
	target, err := requiredQuery(c, "targetUsername")
	if err != nil {
		return "", "", err
	}
	return username, target, nil
}

// SendInvitation handles POST /internal/v3/invitations/send
func (s *Server) SendInvitation(c *fiber.Ctx) error {
	username, target, err := s.usernamePair(c)
	if err != nil {
		return err
	}
	user, err := s.friendService.SendInvitation(c.UserContext(), username, target)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// AcceptInvitation handles POST /internal/v3/invitations/accept
func (s *Server) AcceptInvitation(c *fiber.Ctx) error {
	username, target, err := s.usernamePair(c)
	if err != nil {
		return err
	}
	user, err := s.friendService.AcceptInvitation(c.UserContext(), username, target)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// DeclineInvitation handles POST /internal/v3/invitations/decline
func (s *Server) DeclineInvitation(c *fiber.Ctx) error {
	username, target, err := s.usernamePair(c)
	if err != nil {
		return err
	}
	user, err := s.friendService.DeclineInvitation(c.UserContext(), username, target)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// RemoveFriend handles DELETE /internal/v3/friends/remove
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	username, target, err := s.usernamePair(c)
	if err != nil {
		return err
	}
	if err := s.friendService.RemoveFriend(c.UserContext(), username, target); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

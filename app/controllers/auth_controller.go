package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/plans"
	"github.com/jobtrackr/jobtrackr/internal/pkg/session"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account on the free plan.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return badRequest(c, "name, valid email and a password of at least 6 characters are required")
	}

	free := plans.GetPlan(string(plans.PlanFree))
	user.ApplicationsLimit = free.ApplicationsLimit
	user.AIGenerationsLimit = free.AIGenerationsLimit

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(user.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "an account with this email already exists",
		})
	}
	if err := repo.Create(user); err != nil {
		log.Printf("auth: create user failed: %v", err)
		return internalError(c, "could not create the account")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// HandleLogin verifies credentials and opens a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "invalid email or password",
		})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "this account is not active",
		})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return internalError(c, "could not open a session")
	}
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	sess.Set("user_plan", string(plans.GetPlan(user.SubscriptionPlan).ID))
	if err := sess.Save(); err != nil {
		return internalError(c, "could not persist the session")
	}

	now := time.Now()
	_ = repo.UpdateFields(user.ID, map[string]interface{}{"last_login_at": &now})

	return c.JSON(fiber.Map{"user": user})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleMe returns the authenticated user's profile.
func HandleMe(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "user not found")
		}
		return internalError(c, "could not load the user")
	}
	return c.JSON(fiber.Map{"user": user})
}

// HandleIssueAPIKey generates a fresh API key. The raw key is shown once.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}

	rawKey, err := user.IssueAPIKey()
	if err != nil {
		log.Printf("auth: issue api key for user %d failed: %v", userID, err)
		return internalError(c, "could not generate an API key")
	}
	if err := repo.UpdateFields(userID, map[string]interface{}{
		"api_key_hash":         user.APIKeyHash,
		"api_key_last_used_at": nil,
	}); err != nil {
		return internalError(c, "could not store the API key")
	}

	return c.JSON(fiber.Map{
		"api_key": rawKey,
		"notice":  "store this key now, it will not be shown again",
	})
}

// HandleRevokeAPIKey invalidates the user's API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.UpdateFields(userID, map[string]interface{}{
		"api_key_hash":         "",
		"api_key_last_used_at": nil,
	}); err != nil {
		return internalError(c, "could not revoke the API key")
	}
	return c.JSON(fiber.Map{"success": true})
}

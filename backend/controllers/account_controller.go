package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/middleware"
	"shelfcontrol/backend/services"
	"shelfcontrol/backend/utils"
)

type AccountController struct {
	Service *services.AccountService
	Logger  *zap.Logger
}

func NewAccountController(service *services.AccountService, logger *zap.Logger) *AccountController {
	return &AccountController{Service: service, Logger: logger}
}

type DeleteAccountRequest struct {
	Identifier       string `json:"identifier" example:"bookworm"`
	ConfirmationText string `json:"confirmation_text" example:"delete my account"`
}

type DeleteDataRequest struct {
	ConfirmationText string `json:"confirmation_text" example:"I understand"`
}

// DeleteAccount godoc
// @Summary Delete the caller's account
// @Description Requires the phrase "delete my account" and the account's username (or email).
// @Tags account
// @Accept json
// @Produce json
// @Param request body DeleteAccountRequest true "Confirmation"
// @Success 200 {object} utils.ActionResult
// @Failure 401 {object} utils.ActionResult
// @Security ApiKeyAuth
// @Router /account/delete [post]
func (ac *AccountController) DeleteAccount(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return actionResult(c, services.ErrAccountNotLoggedIn)
	}

	var req DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ActionResult{Error: services.ErrUnexpectedActionFailed.Error()})
	}

	err := ac.Service.DeleteAccount(c.UserContext(), userID, middleware.UserEmail(c), req.Identifier, req.ConfirmationText)
	return actionResult(c, err)
}

// DeleteUserData godoc
// @Summary Delete everything the caller has tracked, keeping the account
// @Description Requires the exact phrase "I understand".
// @Tags account
// @Accept json
// @Produce json
// @Param request body DeleteDataRequest true "Confirmation"
// @Success 200 {object} utils.ActionResult
// @Failure 401 {object} utils.ActionResult
// @Security ApiKeyAuth
// @Router /account/delete-data [post]
func (ac *AccountController) DeleteUserData(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return actionResult(c, services.ErrDataNotLoggedIn)
	}

	var req DeleteDataRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ActionResult{Error: services.ErrUnexpectedActionFailed.Error()})
	}

	return actionResult(c, ac.Service.DeleteUserData(c.UserContext(), userID, req.ConfirmationText))
}

// actionResult maps a service error to a {success, error} response
func actionResult(c *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return c.JSON(utils.ActionResult{Success: true})
	case errors.Is(err, services.ErrAccountNotLoggedIn), errors.Is(err, services.ErrDataNotLoggedIn):
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ActionResult{Error: err.Error()})
	case isActionError(err):
		return c.JSON(utils.ActionResult{Error: err.Error()})
	default:
		return c.JSON(utils.ActionResult{Error: services.ErrUnexpectedActionFailed.Error()})
	}
}

func isActionError(err error) bool {
	for _, known := range []error{
		services.ErrAccountUnverified,
		services.ErrAccountConfirmation,
		services.ErrNoAccountIdentifier,
		services.ErrIdentifierMismatch,
		services.ErrAccountDeleteFailed,
		services.ErrDataConfirmation,
		services.ErrDataDeleteFailed,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

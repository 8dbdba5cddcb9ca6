package controllers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/middleware"
	"shelfcontrol/backend/repository"
	"shelfcontrol/backend/services"
	"shelfcontrol/backend/utils"
)

type ProfileController struct {
	Service *services.ProfileService
	Logger  *zap.Logger
}

func NewProfileController(service *services.ProfileService, logger *zap.Logger) *ProfileController {
	return &ProfileController{Service: service, Logger: logger}
}

const (
	maxNameLength     = 100
	maxUsernameLength = 50
)

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
	Username  string `json:"username" example:"bookworm" maxLength:"50"`
}

func (r UpdateProfileRequest) validate() map[string]string {
	errs := make(map[string]string)
	if utf8.RuneCountInString(strings.TrimSpace(r.FirstName)) > maxNameLength {
		errs["first_name"] = "must be at most 100 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.LastName)) > maxNameLength {
		errs["last_name"] = "must be at most 100 characters"
	}
	username := strings.TrimSpace(r.Username)
	if utf8.RuneCountInString(username) > maxUsernameLength {
		errs["username"] = "must be at most 50 characters"
	} else if strings.ContainsAny(username, " \t\n") {
		errs["username"] = "must not contain spaces"
	}
	return errs
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Description Returns the profile with a signed avatar URL valid for 90 days
// @Tags profile
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /profile [get]
func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	profile, err := pc.Service.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update name fields
// @Description Blank values clear the field
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /profile [put]
func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if errs := req.validate(); len(errs) > 0 {
		return utils.ValidationError(c, errs)
	}

	profile, err := pc.Service.Update(c.UserContext(), middleware.UserID(c), services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// UploadAvatar godoc
// @Summary Replace the caller's avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image, at most 5MB"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /profile/avatar [post]
func (pc *ProfileController) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return utils.BadRequest(c, "avatar file is required")
	}

	// Size and type are checked before the file is read
	contentType := file.Header.Get(fiber.HeaderContentType)
	if err := services.ValidateAvatar(file.Size, contentType); err != nil {
		return pc.fail(c, err)
	}

	body, err := file.Open()
	if err != nil {
		return utils.BadRequest(c, "could not read avatar file")
	}
	defer body.Close()

	profile, err := pc.Service.UploadAvatar(c.UserContext(), middleware.UserID(c), services.Avatar{
		Filename:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Body:        body,
	})
	if err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// DeleteAvatar godoc
// @Summary Remove the caller's avatar
// @Tags profile
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /profile/avatar [delete]
func (pc *ProfileController) DeleteAvatar(c *fiber.Ctx) error {
	if err := pc.Service.RemoveAvatar(c.UserContext(), middleware.UserID(c)); err != nil {
		return pc.fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"avatar_url": nil})
}

func (pc *ProfileController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.NotFound(c, "Profile not found")
	case errors.Is(err, services.ErrUsernameTaken):
		return utils.Error(c, fiber.StatusConflict, err)
	case errors.Is(err, services.ErrAvatarTooLarge):
		return utils.Error(c, fiber.StatusRequestEntityTooLarge, err)
	case errors.Is(err, services.ErrAvatarNotImage):
		return utils.BadRequest(c, err.Error())
	default:
		pc.Logger.Error("profile request failed", zap.String("user_id", middleware.UserID(c)), zap.Error(err))
		return utils.InternalServerError(c, "Failed to update profile")
	}
}

package controllers

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/config"
	"shelfcontrol/backend/export"
	"shelfcontrol/backend/services"
	"shelfcontrol/backend/utils"
)

// ActiveOverdueWindows are the day ranges offered by the active/overdue chart.
var ActiveOverdueWindows = []int{7, 14, 21, 30}

const (
	defaultLimit = 10
	maxLimit     = 100
	maxDays      = 365
)

type AnalyticsController struct {
	Service *services.AnalyticsService
	Cfg     *config.Config
	Logger  *zap.Logger
}

func NewAnalyticsController(service *services.AnalyticsService, cfg *config.Config, logger *zap.Logger) *AnalyticsController {
	return &AnalyticsController{Service: service, Cfg: cfg, Logger: logger}
}

// GetUsers godoc
// @Summary List users for the dashboard pickers
// @Description Without search returns every non-test user ordered by email. With search returns the
// @Description users whose name or email contains it, minus the excluded one.
// @Tags admin-analytics
// @Produce json
// @Param search query string false "Case-insensitive name or email fragment"
// @Param exclude query string false "User id to leave out"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (ac *AnalyticsController) GetUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if c.Context().QueryArgs().Has("search") {
		return utils.Success(c, fiber.StatusOK, ac.Service.SearchUsers(ctx, c.Query("search"), c.Query("exclude")))
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.Users(ctx))
}

// GetActivityTypes godoc
// @Summary Activity counts per type
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/activity-types [get]
func (ac *AnalyticsController) GetActivityTypes(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.ActivityTypes(c.UserContext(), userIDs))
}

// GetActivityTypesOverTime godoc
// @Summary Activity counts per type per day
// @Description One dataset per activity type. types restricts the datasets for the comparison chart.
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Param days query int false "Window length, defaults to the configured window"
// @Param types query string false "Comma separated activity types"
// @Param tz_offset query int false "getTimezoneOffset() of the client"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/activity-types/over-time [get]
func (ac *AnalyticsController) GetActivityTypesOverTime(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	days, err := utils.ParseIntQuery(c, "days", ac.Service.WindowDays(), maxDays)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	data := ac.Service.ActivityTypesOverTime(c.UserContext(), userIDs, days, loc, splitList(c.Query("types")))
	return utils.Success(c, fiber.StatusOK, data)
}

// GetSearches godoc
// @Summary Search totals, top queries and searches per day
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/searches [get]
func (ac *AnalyticsController) GetSearches(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.Searches(c.UserContext(), userIDs))
}

// GetDeadlineStats godoc
// @Summary Deadline totals by latest status and by creation date
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/deadlines/stats [get]
func (ac *AnalyticsController) GetDeadlineStats(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.DeadlineStats(c.UserContext(), userIDs))
}

// GetDeadlinesOverTime godoc
// @Summary Deadlines created per day
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/deadlines/over-time [get]
func (ac *AnalyticsController) GetDeadlinesOverTime(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.DeadlinesOverTime(c.UserContext(), userIDs))
}

// GetDeadlinesByStatus godoc
// @Summary Deadlines per latest status
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/deadlines/by-status [get]
func (ac *AnalyticsController) GetDeadlinesByStatus(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.DeadlinesByStatus(c.UserContext(), userIDs))
}

// GetActiveOverdue godoc
// @Summary Pages in active and overdue deadlines per day
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Param days query int false "7, 14, 21 or 30"
// @Param tz_offset query int false "getTimezoneOffset() of the client"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/deadlines/active-overdue [get]
func (ac *AnalyticsController) GetActiveOverdue(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	days, err := utils.ParseIntQuery(c, "days", 30, 0)
	if err != nil || !slices.Contains(ActiveOverdueWindows, days) {
		return utils.BadRequest(c, "days must be one of 7, 14, 21, 30")
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.ActiveOverdue(c.UserContext(), userIDs, days, loc))
}

// GetFormats godoc
// @Summary Deadlines per format
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/formats [get]
func (ac *AnalyticsController) GetFormats(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.FormatDistribution(c.UserContext(), userIDs))
}

// GetProgressOverTime godoc
// @Summary Pages read per user per day
// @Description Fixed window ending today in the client's time zone, one dataset per user.
// @Tags admin-analytics
// @Produce json
// @Param user_ids query string false "Comma separated user ids"
// @Param tz_offset query int false "getTimezoneOffset() of the client"
// @Param tz query string false "IANA time zone, used when tz_offset is absent"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/progress [get]
func (ac *AnalyticsController) GetProgressOverTime(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.ProgressOverTime(c.UserContext(), userIDs, loc))
}

// GetProfilesCreated godoc
// @Summary Profiles created per day
// @Tags admin-analytics
// @Produce json
// @Param days query int false "Window length, default 30"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/profiles-created [get]
func (ac *AnalyticsController) GetProfilesCreated(c *fiber.Ctx) error {
	days, err := utils.ParseIntQuery(c, "days", 30, maxDays)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.ProfilesCreated(c.UserContext(), days, loc))
}

// GetTopBooks godoc
// @Summary Books with the most deadlines
// @Tags admin-analytics
// @Produce json
// @Param limit query int false "Default 10"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/top-books [get]
func (ac *AnalyticsController) GetTopBooks(c *fiber.Ctx) error {
	limit, err := utils.ParseIntQuery(c, "limit", defaultLimit, maxLimit)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.TopBooks(c.UserContext(), limit))
}

// GetTopUsers godoc
// @Summary Users with the most deadlines
// @Tags admin-analytics
// @Produce json
// @Param limit query int false "Default 10"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/top-users [get]
func (ac *AnalyticsController) GetTopUsers(c *fiber.Ctx) error {
	limit, err := utils.ParseIntQuery(c, "limit", defaultLimit, maxLimit)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.TopUsers(c.UserContext(), limit))
}

// GetMostActiveToday godoc
// @Summary Users with the most activity events today
// @Tags admin-analytics
// @Produce json
// @Param limit query int false "Default 10"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/most-active-today [get]
func (ac *AnalyticsController) GetMostActiveToday(c *fiber.Ctx) error {
	limit, err := utils.ParseIntQuery(c, "limit", defaultLimit, maxLimit)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.MostActiveToday(c.UserContext(), limit, loc))
}

// GetTopReadersToday godoc
// @Summary Top readers by pages read today, with yesterday's rank
// @Tags admin-analytics
// @Produce json
// @Param limit query int false "Default 10"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/top-readers-today [get]
func (ac *AnalyticsController) GetTopReadersToday(c *fiber.Ctx) error {
	limit, err := utils.ParseIntQuery(c, "limit", defaultLimit, maxLimit)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.TopReadersToday(c.UserContext(), limit, loc))
}

// GetReaderRanks godoc
// @Summary Stored daily reader rankings
// @Tags admin-analytics
// @Produce json
// @Param days query int false "How many local days back, default 7"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/reader-ranks [get]
func (ac *AnalyticsController) GetReaderRanks(c *fiber.Ctx) error {
	days, err := utils.ParseIntQuery(c, "days", 7, maxDays)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return utils.Success(c, fiber.StatusOK, ac.Service.ReaderRanks(c.UserContext(), days, loc))
}

// ExportWorkbook godoc
// @Summary Download the dashboard as an Excel workbook
// @Tags admin-analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param user_ids query string false "Comma separated user ids"
// @Param tz_offset query int false "getTimezoneOffset() of the client"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics/export [get]
func (ac *AnalyticsController) ExportWorkbook(c *fiber.Ctx) error {
	userIDs, err := utils.ParseUserIDs(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	loc, err := utils.ParseLocation(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	dashboard := ac.Service.Dashboard(c.UserContext(), userIDs, loc)

	var buf bytes.Buffer
	if err := export.Write(&buf, dashboard); err != nil {
		ac.Logger.Error("export workbook", zap.Error(err))
		return utils.InternalServerError(c, "Failed to build workbook")
	}

	filename := fmt.Sprintf("shelfcontrol-analytics-%s.xlsx", dashboard.GeneratedAt.In(loc).Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// splitList splits a comma separated list and drops empty items
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

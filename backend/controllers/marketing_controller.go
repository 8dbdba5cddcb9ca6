package controllers

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shelfcontrol/backend/services"
	"shelfcontrol/backend/utils"
)

type MarketingController struct {
	Waitlist *services.WaitlistService
	SiteURL  string
	Logger   *zap.Logger
	now      func() time.Time
}

func NewMarketingController(waitlist *services.WaitlistService, siteURL string, logger *zap.Logger) *MarketingController {
	return &MarketingController{
		Waitlist: waitlist,
		SiteURL:  strings.TrimRight(siteURL, "/"),
		Logger:   logger,
		now:      time.Now,
	}
}

// JoinWaitlist godoc
// @Summary Sign up for the waitlist
// @Description Signing up again with the same email succeeds without a second row
// @Tags marketing
// @Accept json
// @Produce json
// @Param request body services.WaitlistSignup true "Signup"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /waitlist [post]
func (mc *MarketingController) JoinWaitlist(c *fiber.Ctx) error {
	var req services.WaitlistSignup
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := mc.Waitlist.Join(c.UserContext(), req); err != nil {
		if errors.Is(err, services.ErrWaitlistEmail) || errors.Is(err, services.ErrWaitlistBookCount) {
			return utils.BadRequest(c, err.Error())
		}
		mc.Logger.Error("waitlist signup failed", zap.Error(err))
		return utils.InternalServerError(c, "Could not join the waitlist")
	}

	return utils.Created(c, fiber.Map{"message": "You're on the list!"})
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap godoc
// @Summary Sitemap of the public pages
// @Tags marketing
// @Produce xml
// @Success 200 {string} string
// @Router /sitemap.xml [get]
func (mc *MarketingController) Sitemap(c *fiber.Ctx) error {
	lastMod := mc.now().UTC().Format(time.RFC3339)
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: mc.SiteURL + "/", LastMod: lastMod, ChangeFreq: "weekly", Priority: 1.0},
			{Loc: mc.SiteURL + "/privacy-policy", LastMod: lastMod, ChangeFreq: "monthly", Priority: 0.3},
			{Loc: mc.SiteURL + "/terms", LastMod: lastMod, ChangeFreq: "monthly", Priority: 0.3},
		},
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return utils.InternalServerError(c, "Failed to build sitemap")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(append([]byte(xml.Header), out...))
}

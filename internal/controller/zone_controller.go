package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"dayzone_backend/internal/service"
)

type ZoneController struct {
	zones *service.ZoneReadService
}

func NewZoneController(zones *service.ZoneReadService) *ZoneController {
	return &ZoneController{zones: zones}
}

// respond maps zone read results onto the wire: user not found is the
// caller's mistake, anything else from storage is a generic 500.
func respond(c *fiber.Ctx, zone string, result interface{}, err error) error {
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("list %s failed: %v", zone, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch " + zone,
		})
	}
	return c.JSON(result)
}

func (zc *ZoneController) GetDeepWork(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.DeepWork(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "deep work items", result, err)
}

func (zc *ZoneController) GetQuickWins(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.QuickWins(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "quick wins", result, err)
}

func (zc *ZoneController) GetMakeItHappen(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.MakeItHappen(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "make it happen tasks", result, err)
}

func (zc *ZoneController) GetRecharge(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.Recharge(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "recharge zones", result, err)
}

func (zc *ZoneController) GetLittleJoys(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.LittleJoys(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "little joys", result, err)
}

func (zc *ZoneController) GetReflections(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.Reflections(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "reflections", result, err)
}

func (zc *ZoneController) GetCoreMemories(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.CoreMemories(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "core memories", result, err)
}

func (zc *ZoneController) GetProgressLog(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	result, err := zc.zones.ProgressLog(c.UserContext(), userID, c.Query("filter"))
	return respond(c, "progress log", result, err)
}

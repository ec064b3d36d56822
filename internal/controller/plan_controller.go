package controller

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dayzone_backend/internal/repository"
)

type PlanController struct {
	plans *repository.PlanRepository
}

func NewPlanController(plans *repository.PlanRepository) *PlanController {
	return &PlanController{plans: plans}
}

// requireUserID reads the mandatory userId query parameter. A zero return
// means the response has already been written.
func requireUserID(c *fiber.Ctx) (uint, error) {
	raw := c.Query("userId")
	if raw == "" {
		return 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId query parameter is required",
		})
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId must be a positive integer",
		})
	}
	return uint(id), nil
}

// GetPlan returns the plan for the date, creating an empty one on first access.
func (pc *PlanController) GetPlan(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	date := c.Params("date")

	plan, err := pc.plans.GetOrCreate(c.UserContext(), userID, date)
	if err != nil {
		var vErr repository.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": vErr.Error(),
			})
		}
		log.Printf("get plan failed user=%d date=%s: %v", userID, date, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load plan",
		})
	}

	return c.JSON(plan)
}

// UpdatePlan merges a sparse patch into the plan atomically.
func (pc *PlanController) UpdatePlan(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if userID == 0 {
		return err
	}
	date := c.Params("date")

	patch := new(repository.PlanPatch)
	if err := c.BodyParser(patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plan, err := pc.plans.Update(c.UserContext(), userID, date, patch)
	if err != nil {
		var vErr repository.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": vErr.Error(),
			})
		}
		log.Printf("update plan failed user=%d date=%s: %v", userID, date, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update plan",
		})
	}

	return c.JSON(plan)
}

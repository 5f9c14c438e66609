package api

import (
	"familytree/internal/model"
	"familytree/internal/telemetry"

	"github.com/gofiber/fiber/v2"
)

type coupleRequest struct {
	Husband  model.Member `json:"husband"`
	Wife     model.Member `json:"wife"`
	ParentID string       `json:"parentId"`
}

func (h *Handler) ListMembers(c *fiber.Ctx) error {
	members, err := h.members.List(telemetry.ContextFromFiber(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", members)
}

func (h *Handler) GetMember(c *fiber.Ctx) error {
	m, err := h.members.Get(telemetry.ContextFromFiber(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", m)
}

func (h *Handler) CreateMember(c *fiber.Ctx) error {
	var input model.Member
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	created, err := h.members.Add(telemetry.ContextFromFiber(c), input)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusCreated, "member added", created)
}

func (h *Handler) CreateCouple(c *fiber.Ctx) error {
	var req coupleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	husband, wife, err := h.members.AddCouple(telemetry.ContextFromFiber(c), req.Husband, req.Wife, req.ParentID)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusCreated, "couple added", fiber.Map{
		"husband": husband,
		"wife":    wife,
	})
}

func (h *Handler) CreateChild(c *fiber.Ctx) error {
	var input model.Member
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	child, err := h.members.AddChild(telemetry.ContextFromFiber(c), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusCreated, "child added", child)
}

func (h *Handler) CreateSpouse(c *fiber.Ctx) error {
	var input model.Member
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	spouse, err := h.members.AddSpouse(telemetry.ContextFromFiber(c), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusCreated, "spouse added", spouse)
}

func (h *Handler) ChildDraft(c *fiber.Ctx) error {
	draft, err := h.members.ChildDraft(telemetry.ContextFromFiber(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", draft)
}

func (h *Handler) SpouseDraft(c *fiber.Ctx) error {
	draft, err := h.members.SpouseDraft(telemetry.ContextFromFiber(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", draft)
}

func (h *Handler) CoupleDraft(c *fiber.Ctx) error {
	husband, wife, err := h.members.CoupleDraft(telemetry.ContextFromFiber(c), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", fiber.Map{
		"husband": husband,
		"wife":    wife,
	})
}

func (h *Handler) UpdateMember(c *fiber.Ctx) error {
	var input model.Member
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	updated, err := h.members.Update(telemetry.ContextFromFiber(c), c.Params("id"), input)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "member updated", updated)
}

func (h *Handler) DeleteMember(c *fiber.Ctx) error {
	if err := h.members.Delete(telemetry.ContextFromFiber(c), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "member deleted", nil)
}

func (h *Handler) GetTree(c *fiber.Ctx) error {
	tree, err := h.members.Tree(telemetry.ContextFromFiber(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", tree)
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	stats, err := h.members.Stats(telemetry.ContextFromFiber(c))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, fiber.StatusOK, "", stats)
}

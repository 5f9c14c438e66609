package api

import (
	"errors"
	"net/url"

	"familytree/internal/family"
	"familytree/internal/middleware"
	"familytree/internal/model"
	"familytree/internal/telemetry"
	"familytree/internal/web"

	"github.com/gofiber/fiber/v2"
)

const correctFields = "Please correct the highlighted fields."

// memberFromForm reads the member inputs, optionally namespaced by prefix.
// An unreadable donation amount is reported as a field error.
func memberFromForm(c *fiber.Ctx, prefix string) (model.Member, map[string]string) {
	m := model.Member{
		FirstName:    c.FormValue(prefix + "firstName"),
		LastName:     c.FormValue(prefix + "lastName"),
		BirthDate:    c.FormValue(prefix + "birthDate"),
		DeathDate:    c.FormValue(prefix + "deathDate"),
		Relationship: model.Relationship(c.FormValue(prefix + "relationship")),
		Gender:       model.Gender(c.FormValue(prefix + "gender")),
		Location:     c.FormValue(prefix + "location"),
		Phone:        c.FormValue(prefix + "phone"),
		Email:        c.FormValue(prefix + "email"),
		Notes:        c.FormValue(prefix + "notes"),
		ParentID:     c.FormValue(prefix + "parentId"),
		SpouseID:     c.FormValue(prefix + "spouseId"),
	}

	amount, err := model.ParseAmount(c.FormValue(prefix + "donationAmount"))
	if err != nil {
		return m, map[string]string{prefix + "donationAmount": "must be a number"}
	}
	m.DonationAmount = amount
	return m, nil
}

// formFailure turns a manager error into the status, field errors and
// banner the form is rendered with again.
func (h *Handler) formFailure(c *fiber.Ctx, err error) (int, map[string]string, string) {
	if fields := fieldErrors(err); fields != nil {
		return fiber.StatusUnprocessableEntity, fields, correctFields
	}

	var structural *family.StructuralError
	switch {
	case errors.As(err, &structural):
		return fiber.StatusConflict, nil, "This change would leave the family data inconsistent: " + structural.Error()
	case errors.Is(err, family.ErrMemberNotFound):
		return fiber.StatusNotFound, nil, "That family member no longer exists."
	case errors.Is(err, family.ErrDuplicateID), errors.Is(err, family.ErrInvalidCouple):
		return fiber.StatusConflict, nil, err.Error()
	}

	h.logger.ErrorContext(telemetry.ContextFromFiber(c), "Form submission failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return fiber.StatusInternalServerError, nil, "The change could not be saved. Please try again."
}

func (h *Handler) memberForm(c *fiber.Ctx, status int, title, action string, m model.Member, errs map[string]string, message string) error {
	c.Status(status)
	return render(c, web.MemberFormPage(web.MemberFormProps{
		CSRFToken: csrfToken(c),
		Email:     middleware.Email(c),
		Title:     title,
		Action:    action,
		Member:    m,
		Errors:    errs,
		Error:     message,
	}))
}

// submitMember parses the member form, hands it to save and redirects home
// on success. Failures render the same form with the submitted values.
func (h *Handler) submitMember(c *fiber.Ctx, title string, save func(model.Member) error) error {
	action := c.OriginalURL()
	input, errs := memberFromForm(c, "")
	if errs != nil {
		return h.memberForm(c, fiber.StatusUnprocessableEntity, title, action, input, errs, correctFields)
	}

	if err := save(input); err != nil {
		status, errs, message := h.formFailure(c, err)
		return h.memberForm(c, status, title, action, input, errs, message)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// expand opens a node so a member added beneath it is visible.
func (h *Handler) expand(c *fiber.Ctx, id string) {
	expanded, err := h.sessions.Expanded(c)
	if err == nil {
		expanded[id] = true
		err = h.sessions.SetExpanded(c, expanded)
	}
	if err != nil {
		h.logger.WarnContext(telemetry.ContextFromFiber(c), "Failed to expand node", "node_id", id, "error", err)
	}
}

func (h *Handler) ShowNewMemberPage(c *fiber.Ctx) error {
	return h.memberForm(c, fiber.StatusOK, "Add member", "/members/new", model.Member{}, nil, "")
}

func (h *Handler) CreateMemberForm(c *fiber.Ctx) error {
	return h.submitMember(c, "Add member", func(input model.Member) error {
		_, err := h.members.Add(telemetry.ContextFromFiber(c), input)
		return err
	})
}

func (h *Handler) ShowEditMemberPage(c *fiber.Ctx) error {
	id := c.Params("id")
	m, err := h.members.Get(telemetry.ContextFromFiber(c), id)
	if err != nil {
		if errors.Is(err, family.ErrMemberNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return h.memberForm(c, fiber.StatusOK, "Edit "+m.FullName(), "/members/"+url.PathEscape(id)+"/edit", m, nil, "")
}

func (h *Handler) UpdateMemberForm(c *fiber.Ctx) error {
	return h.submitMember(c, "Edit member", func(input model.Member) error {
		_, err := h.members.Update(telemetry.ContextFromFiber(c), c.Params("id"), input)
		return err
	})
}

func (h *Handler) DeleteMemberForm(c *fiber.Ctx) error {
	if err := h.members.Delete(telemetry.ContextFromFiber(c), c.Params("id")); err != nil {
		if errors.Is(err, family.ErrMemberNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) ShowNewChildPage(c *fiber.Ctx) error {
	id := c.Params("id")
	draft, err := h.members.ChildDraft(telemetry.ContextFromFiber(c), id)
	if err != nil {
		if errors.Is(err, family.ErrMemberNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return h.memberForm(c, fiber.StatusOK, "Add child", "/members/"+url.PathEscape(id)+"/children/new", draft, nil, "")
}

func (h *Handler) CreateChildForm(c *fiber.Ctx) error {
	parentID := c.Params("id")
	return h.submitMember(c, "Add child", func(input model.Member) error {
		if _, err := h.members.AddChild(telemetry.ContextFromFiber(c), parentID, input); err != nil {
			return err
		}
		h.expand(c, parentID)
		return nil
	})
}

func (h *Handler) ShowNewSpousePage(c *fiber.Ctx) error {
	id := c.Params("id")
	draft, err := h.members.SpouseDraft(telemetry.ContextFromFiber(c), id)
	if err != nil {
		if errors.Is(err, family.ErrMemberNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return h.memberForm(c, fiber.StatusOK, "Add spouse", "/members/"+url.PathEscape(id)+"/spouse/new", draft, nil, "")
}

func (h *Handler) CreateSpouseForm(c *fiber.Ctx) error {
	return h.submitMember(c, "Add spouse", func(input model.Member) error {
		_, err := h.members.AddSpouse(telemetry.ContextFromFiber(c), c.Params("id"), input)
		return err
	})
}

func (h *Handler) coupleForm(c *fiber.Ctx, status int, props web.CoupleFormProps) error {
	props.CSRFToken = csrfToken(c)
	props.Email = middleware.Email(c)
	props.Title = "Add couple"
	props.Action = "/couples/new"
	c.Status(status)
	return render(c, web.CoupleFormPage(props))
}

// ShowNewCouplePage prefills a couple under the parentId query parameter,
// or a root couple when it is absent.
func (h *Handler) ShowNewCouplePage(c *fiber.Ctx) error {
	parentID := c.Query("parentId")
	husband, wife, err := h.members.CoupleDraft(telemetry.ContextFromFiber(c), parentID)
	if err != nil {
		if errors.Is(err, family.ErrMemberNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return h.coupleForm(c, fiber.StatusOK, web.CoupleFormProps{ParentID: parentID, Husband: husband, Wife: wife})
}

func (h *Handler) CreateCoupleForm(c *fiber.Ctx) error {
	props := web.CoupleFormProps{ParentID: c.FormValue("parentId")}

	var husbandErrs, wifeErrs map[string]string
	props.Husband, husbandErrs = memberFromForm(c, "husband.")
	props.Wife, wifeErrs = memberFromForm(c, "wife.")
	if husbandErrs != nil || wifeErrs != nil {
		props.Errors = map[string]string{}
		for _, errs := range []map[string]string{husbandErrs, wifeErrs} {
			for name, msg := range errs {
				props.Errors[name] = msg
			}
		}
		props.Error = correctFields
		return h.coupleForm(c, fiber.StatusUnprocessableEntity, props)
	}

	_, _, err := h.members.AddCouple(telemetry.ContextFromFiber(c), props.Husband, props.Wife, props.ParentID)
	if err != nil {
		var status int
		status, props.Errors, props.Error = h.formFailure(c, err)
		return h.coupleForm(c, status, props)
	}

	if props.ParentID != "" {
		h.expand(c, props.ParentID)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

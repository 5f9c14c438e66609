package web

import (
	"context"
	"strconv"

	"familytree/internal/model"

	"github.com/a-h/templ"
)

// MemberFormProps drives the add, edit, child and spouse forms. Errors is
// keyed by the JSON field name.
type MemberFormProps struct {
	CSRFToken string
	Email     string
	Title     string
	Action    string
	Member    model.Member
	Errors    map[string]string
	Error     string
}

// CoupleFormProps drives the new couple form. Errors keys carry a
// "husband." or "wife." prefix.
type CoupleFormProps struct {
	CSRFToken string
	Email     string
	Title     string
	Action    string
	ParentID  string
	Husband   model.Member
	Wife      model.Member
	Errors    map[string]string
	Error     string
}

func MemberFormPage(props MemberFormProps) templ.Component {
	page := chrome{Title: props.Title, Email: props.Email, CSRFToken: props.CSRFToken}
	return layout(page, component(func(ctx context.Context, hw *htmlWriter) {
		hw.render(ctx, formStart(props.Title, props.Action, props.Error, props.CSRFToken))
		hw.render(ctx, hiddenField("parentId", props.Member.ParentID))
		hw.render(ctx, hiddenField("spouseId", props.Member.SpouseID))
		hw.render(ctx, memberFields("", props.Member, props.Errors))
		hw.render(ctx, formEnd())
	}))
}

func CoupleFormPage(props CoupleFormProps) templ.Component {
	page := chrome{Title: props.Title, Email: props.Email, CSRFToken: props.CSRFToken}
	return layout(page, component(func(ctx context.Context, hw *htmlWriter) {
		hw.render(ctx, formStart(props.Title, props.Action, props.Error, props.CSRFToken))
		hw.render(ctx, hiddenField("parentId", props.ParentID))
		for _, partner := range []struct {
			legend, prefix string
			member         model.Member
		}{
			{"Husband", "husband.", props.Husband},
			{"Wife", "wife.", props.Wife},
		} {
			hw.raw("<fieldset><legend>", partner.legend, "</legend>")
			hw.render(ctx, memberFields(partner.prefix, partner.member, props.Errors))
			hw.raw("</fieldset>")
		}
		hw.render(ctx, formEnd())
	}))
}

func formStart(title, action, message, token string) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<main><div class="card"><h1>`)
		hw.text(title)
		hw.raw("</h1>")
		hw.render(ctx, errorMessage(message))
		hw.raw(`<form method="post" novalidate`)
		hw.action(templ.URL(action))
		hw.raw(">")
		hw.render(ctx, csrfField(token))
	})
}

func formEnd() templ.Component {
	return component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<p><button type="submit">Save</button> <a href="/">Cancel</a></p></form></div></main>`)
	})
}

func hiddenField(name, value string) templ.Component {
	return component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<input type="hidden"`)
		hw.attr("name", name)
		hw.attr("value", value)
		hw.raw(">")
	})
}

type inputField struct {
	name  string
	label string
	kind  string
	value string
	extra string
}

// memberFields renders every editable member field. prefix namespaces the
// inputs when two members share a form.
func memberFields(prefix string, m model.Member, errs map[string]string) templ.Component {
	donation := ""
	if m.DonationAmount != 0 {
		donation = strconv.FormatFloat(m.DonationAmount, 'f', -1, 64)
	}

	return component(func(_ context.Context, hw *htmlWriter) {
		fieldError := func(name string) {
			if msg, ok := errs[prefix+name]; ok {
				hw.raw(`<span class="field-error"`)
				hw.attr("data-field", prefix+name)
				hw.raw(">")
				hw.text(msg)
				hw.raw("</span>")
			}
		}
		input := func(f inputField) {
			hw.raw("<label>", f.label, "<input")
			hw.attr("type", f.kind)
			hw.attr("name", prefix+f.name)
			hw.attr("value", f.value)
			if f.extra != "" {
				hw.raw(" ", f.extra)
			}
			hw.raw(">")
			fieldError(f.name)
			hw.raw("</label>")
		}
		choice := func(name, label, selected string, options []string) {
			hw.raw("<label>", label, "<select")
			hw.attr("name", prefix+name)
			hw.raw(`><option value="">Not set</option>`)
			for _, o := range options {
				hw.raw("<option")
				hw.attr("value", o)
				if o == selected {
					hw.raw(" selected")
				}
				hw.raw(">")
				hw.text(o)
				hw.raw("</option>")
			}
			hw.raw("</select>")
			fieldError(name)
			hw.raw("</label>")
		}

		hw.raw(`<div class="fields">`)
		input(inputField{name: "firstName", label: "First name", kind: "text", value: m.FirstName, extra: `required maxlength="100"`})
		input(inputField{name: "lastName", label: "Last name", kind: "text", value: m.LastName, extra: `required maxlength="100"`})
		input(inputField{name: "birthDate", label: "Birth date", kind: "date", value: m.BirthDate})
		input(inputField{name: "deathDate", label: "Death date", kind: "date", value: m.DeathDate})

		relationships := make([]string, 0, len(model.Relationships))
		for _, r := range model.Relationships {
			relationships = append(relationships, string(r))
		}
		choice("relationship", "Relationship", string(m.Relationship), relationships)

		genders := make([]string, 0, len(model.Genders))
		for _, g := range model.Genders {
			genders = append(genders, string(g))
		}
		choice("gender", "Gender", string(m.Gender), genders)

		input(inputField{name: "location", label: "Location", kind: "text", value: m.Location, extra: `maxlength="200"`})
		input(inputField{name: "phone", label: "Phone", kind: "tel", value: m.Phone, extra: `maxlength="50"`})
		input(inputField{name: "email", label: "Email", kind: "email", value: m.Email, extra: `maxlength="254"`})
		input(inputField{name: "donationAmount", label: "Donation amount", kind: "number", value: donation, extra: `min="0" step="0.01"`})

		hw.raw("<label>Notes<textarea")
		hw.attr("name", prefix+"notes")
		hw.raw(` rows="3" maxlength="2000">`)
		hw.text(m.Notes)
		hw.raw("</textarea>")
		fieldError("notes")
		hw.raw("</label></div>")
	})
}

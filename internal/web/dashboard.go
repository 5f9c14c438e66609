package web

import (
	"context"
	"net/url"
	"strconv"

	"familytree/internal/family"
	"familytree/internal/model"

	"github.com/a-h/templ"
)

type DashboardProps struct {
	CSRFToken string
	Email     string
	Stats     family.Stats
	Nodes     []NodeView
	Error     string
}

// NodeView is a DisplayNode prepared for rendering with its expansion
// state resolved.
type NodeView struct {
	ID          string
	Name        string
	Initials    string
	Level       int
	SpouseLevel int
	Member      model.Member
	Spouse      *model.Member
	Donations   float64
	HasChildren bool
	Expanded    bool
	ChildCount  int
	Children    []NodeView
}

// NodeViews resolves expansion for the forest. Collapsed nodes keep their
// child count but their children are not rendered.
func NodeViews(nodes []*family.DisplayNode, expanded map[string]bool) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		v := NodeView{
			ID:          n.ID,
			Name:        n.Name,
			Initials:    n.Member.Initials(),
			Level:       n.Level,
			SpouseLevel: n.SpouseLevel,
			Member:      n.Member,
			Spouse:      n.Spouse,
			Donations:   n.Donations,
			HasChildren: !n.IsLeaf(),
			Expanded:    expanded[n.ID],
			ChildCount:  len(n.Children),
		}
		if v.HasChildren && v.Expanded {
			v.Children = NodeViews(n.Children, expanded)
		}
		views = append(views, v)
	}
	return views
}

// ExpandableIDs lists every node that has children.
func ExpandableIDs(tree family.Tree) map[string]bool {
	ids := map[string]bool{}
	tree.Walk(func(n *family.DisplayNode, _ int) bool {
		if !n.IsLeaf() {
			ids[n.ID] = true
		}
		return true
	})
	return ids
}

func memberURL(id, suffix string) templ.SafeURL {
	return templ.URL("/members/" + url.PathEscape(id) + suffix)
}

func DashboardPage(props DashboardProps) templ.Component {
	page := chrome{Title: "Dashboard", Email: props.Email, CSRFToken: props.CSRFToken}
	return layout(page, dashboard(props))
}

func dashboard(props DashboardProps) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw("<main>")
		hw.render(ctx, errorMessage(props.Error))
		hw.render(ctx, statsGrid(props.Stats))

		hw.raw(`<section class="card"><div class="toolbar">`)
		hw.raw(`<a href="/members/new">Add member</a> <a href="/couples/new">Add couple</a>`)
		for _, action := range []struct{ path, label string }{
			{"/tree/expand-all", "Expand all"},
			{"/tree/collapse-all", "Collapse all"},
		} {
			hw.raw(`<form class="inline" method="post"`)
			hw.action(templ.URL(action.path))
			hw.raw(">")
			hw.render(ctx, csrfField(props.CSRFToken))
			hw.raw(`<button type="submit">`, action.label, "</button></form>")
		}
		hw.raw("</div>")

		if len(props.Nodes) == 0 {
			hw.raw("<p>No family members yet.</p>")
		} else {
			hw.render(ctx, treeNodes(props.CSRFToken, props.Nodes))
		}
		hw.raw("</section></main>")
	})
}

func statsGrid(stats family.Stats) templ.Component {
	return component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<section class="stats">`)
		for _, s := range []struct{ value, label string }{
			{strconv.Itoa(stats.MemberCount), "Members"},
			{strconv.Itoa(stats.CoupleCount), "Couples"},
			{money(stats.TotalDonations), "Total donations"},
			{strconv.Itoa(stats.ContributorCount), "Contributors"},
			{strconv.Itoa(stats.LeadershipCount), "Leadership"},
			{strconv.Itoa(stats.ManagementCount), "Management"},
			{strconv.Itoa(stats.TeamCount), "Team"},
		} {
			hw.raw(`<div class="card stat"><b>`, s.value, "</b>", s.label, "</div>")
		}
		hw.raw("</section>")
	})
}

// treeNodes renders one level of the forest and recurses into expanded
// children.
func treeNodes(token string, nodes []NodeView) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<ul class="tree">`)
		for _, n := range nodes {
			hw.raw("<li")
			hw.attr("data-node-id", n.ID)
			hw.raw(">")
			hw.render(ctx, nodeCard(token, n))
			if len(n.Children) > 0 {
				hw.render(ctx, treeNodes(token, n.Children))
			}
			hw.raw("</li>")
		}
		hw.raw("</ul>")
	})
}

func nodeCard(token string, n NodeView) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		if n.Spouse != nil {
			hw.raw(`<div class="node couple">`)
		} else {
			hw.raw(`<div class="node">`)
		}
		hw.raw("<strong>")
		hw.text(n.Name)
		hw.raw(`</strong><div class="partners">`)
		hw.render(ctx, personCard(token, n.Member, n.Level))
		if n.Spouse != nil {
			hw.render(ctx, personCard(token, *n.Spouse, n.SpouseLevel))
		}
		hw.raw(`</div><div class="actions">`)

		if n.Donations > 0 {
			hw.raw("<small>Donations ", money(n.Donations), "</small>")
		}
		hw.raw("<a")
		hw.href(memberURL(n.ID, "/children/new"))
		hw.raw(">Add child</a>")
		if n.Spouse == nil {
			hw.raw("<a")
			hw.href(memberURL(n.ID, "/spouse/new"))
			hw.raw(">Add spouse</a>")
		}
		hw.raw("<a")
		hw.href(templ.URL("/couples/new?parentId=" + url.QueryEscape(n.ID)))
		hw.raw(">Add couple</a>")

		if n.HasChildren {
			hw.raw(`<form class="inline" method="post"`)
			hw.action(templ.URL("/tree/" + url.PathEscape(n.ID) + "/toggle"))
			hw.raw(">")
			hw.render(ctx, csrfField(token))
			hw.raw(`<button type="submit"`)
			hw.attr("aria-expanded", strconv.FormatBool(n.Expanded))
			hw.raw(">")
			if n.Expanded {
				hw.raw("Collapse")
			} else {
				hw.raw("Expand (", strconv.Itoa(n.ChildCount), ")")
			}
			hw.raw("</button></form>")
		}
		hw.raw("</div></div>")
	})
}

// personCard is one half of a node: badge, name, relationship and contact
// details with the member's own edit and delete actions.
func personCard(token string, m model.Member, level int) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<div class="person"`)
		hw.attr("data-member-id", m.ID)
		hw.raw(`><span class="badge level-`, strconv.Itoa(level), `">`)
		hw.text(m.Initials())
		hw.raw("</span><span>")
		hw.text(m.FullName())

		hw.raw("<br><small>")
		hw.text(string(m.Relationship))
		if m.Location != "" {
			hw.raw(" · ")
			hw.text(m.Location)
		}
		hw.raw("</small>")

		if m.Email != "" || m.Phone != "" {
			hw.raw("<br><small>")
			if m.Email != "" {
				hw.raw("<a")
				hw.href(templ.URL("mailto:" + m.Email))
				hw.raw(">")
				hw.text(m.Email)
				hw.raw("</a>")
			}
			if m.Email != "" && m.Phone != "" {
				hw.raw(" · ")
			}
			hw.text(m.Phone)
			hw.raw("</small>")
		}

		hw.raw(`<br><span class="actions"><a`)
		hw.href(memberURL(m.ID, "/edit"))
		hw.raw(`>Edit</a><form class="inline" method="post"`)
		hw.action(memberURL(m.ID, "/delete"))
		hw.raw(` onsubmit="return confirm('Delete this family member?')">`)
		hw.render(ctx, csrfField(token))
		hw.raw(`<button type="submit">Delete</button></form></span></span></div>`)
	})
}

package web

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, s := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with the value escaped.
func (hw *htmlWriter) attr(name, value string) {
	hw.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (hw *htmlWriter) href(url templ.SafeURL) {
	hw.attr("href", string(url))
}

func (hw *htmlWriter) action(url templ.SafeURL) {
	hw.attr("action", string(url))
}

func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func component(fn func(ctx context.Context, hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		fn(ctx, hw)
		return hw.err
	})
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func csrfField(token string) templ.Component {
	return component(func(_ context.Context, hw *htmlWriter) {
		hw.raw(`<input type="hidden" name="csrf_token"`)
		hw.attr("value", token)
		hw.raw(">")
	})
}

func errorMessage(message string) templ.Component {
	return component(func(_ context.Context, hw *htmlWriter) {
		if message == "" {
			return
		}
		hw.raw(`<p class="error" role="alert">`)
		hw.text(message)
		hw.raw("</p>")
	})
}

// chrome is the part of every page outside main.
type chrome struct {
	Title     string
	Email     string
	CSRFToken string
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{display:flex;justify-content:space-between;align-items:center;padding:12px 24px;background:#243b53;color:#fff}
header a{color:#fff;text-decoration:none}
main{max-width:1100px;margin:24px auto;padding:0 16px}
.card{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.stats{display:grid;grid-template-columns:repeat(auto-fit,minmax(150px,1fr));gap:12px;margin-bottom:24px}
.stat b{display:block;font-size:1.6em}
.toolbar{display:flex;flex-wrap:wrap;gap:8px;align-items:center;margin-bottom:8px}
ul.tree{list-style:none;padding-left:24px}
ul.tree>li{margin:8px 0}
.node{display:inline-flex;flex-direction:column;gap:8px;background:#fff;border-radius:8px;padding:8px 12px;box-shadow:0 1px 2px rgba(0,0,0,.1)}
.node.couple{border-left:4px solid #3a86ff}
.partners{display:flex;gap:16px;align-items:flex-start}
.person{display:flex;gap:8px;align-items:flex-start}
.actions{display:flex;flex-wrap:wrap;gap:6px;align-items:center;font-size:.9em}
.badge{display:inline-block;width:32px;height:32px;line-height:32px;text-align:center;border-radius:50%;color:#fff;font-weight:600;flex:none}
.level-0{background:#9aa5b1}.level-1{background:#7b2cbf}.level-2{background:#3a86ff}.level-3{background:#2a9d8f}.level-4{background:#f4a261}.level-5{background:#e76f51}
.error{color:#b00020;margin:8px 0}
.field-error{display:block;color:#b00020;font-size:.85em}
.fields{display:grid;grid-template-columns:repeat(auto-fit,minmax(220px,1fr));gap:8px 16px}
.fields label{display:block}
.fields input,.fields select,.fields textarea{width:100%;box-sizing:border-box}
fieldset{border:1px solid #d9e2ec;border-radius:8px;margin:12px 0}
form.inline{display:inline}
button{cursor:pointer}`

func layout(page chrome, body templ.Component) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.text(page.Title)
		hw.raw(" · Family Tree</title><style>", styles, "</style></head><body>")

		if page.Email != "" {
			hw.raw(`<header><strong><a href="/">Family Tree</a></strong><span>`)
			hw.text(page.Email)
			hw.raw(` <form class="inline" method="post" action="/logout">`)
			hw.render(ctx, csrfField(page.CSRFToken))
			hw.raw(`<button type="submit">Sign out</button></form></span></header>`)
		}

		hw.render(ctx, body)
		hw.raw("</body></html>")
	})
}

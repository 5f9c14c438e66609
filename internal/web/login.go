package web

import (
	"context"

	"github.com/a-h/templ"
)

type LoginProps struct {
	CSRFToken string
	Email     string
	Error     string
}

func LoginPage(props LoginProps) templ.Component {
	return layout(chrome{Title: "Sign in"}, loginForm(props))
}

func loginForm(props LoginProps) templ.Component {
	return component(func(ctx context.Context, hw *htmlWriter) {
		hw.raw(`<main><div class="card" style="max-width:360px;margin:80px auto"><h1>Family Tree</h1>`)
		hw.render(ctx, errorMessage(props.Error))
		hw.raw(`<form method="post" action="/login">`)
		hw.render(ctx, csrfField(props.CSRFToken))
		hw.raw(`<p><label>Email<br><input type="email" name="email"`)
		hw.attr("value", props.Email)
		hw.raw(` required autocomplete="username"></label></p>`)
		hw.raw(`<p><label>Password<br><input type="password" name="password" required autocomplete="current-password"></label></p>`)
		hw.raw(`<button type="submit">Sign in</button></form></div></main>`)
	})
}

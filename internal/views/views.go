// Package views renders the HTML-like fragment for each named view of the
// client. The fragments are swapped into the app container by whatever
// rendering surface consumes them; this package only produces markup.
package views

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// Data carries everything a view fragment may interpolate.
type Data struct {
	User     *models.User
	Requests []models.Request
}

// Renderer holds the parsed fragment templates, one per view name.
type Renderer struct {
	templates *template.Template
}

var fragments = map[string]string{
	"splash": `<div class="splash" id="splash-screen">
	<h1>Lifeline</h1>
	<p>Every drop counts</p>
</div>`,

	"login": `<div class="screen login">
	<h2>Welcome Back</h2>
	<p>Sign in to continue saving lives</p>
	<input type="tel" id="phone" placeholder="Phone Number">
	<input type="number" id="otp" placeholder="Enter OTP (Any 4 digits)">
	<button data-action="submit-login">Login</button>
	<p>Don't have an account? <a href="#" data-action="goto-register">Register</a></p>
</div>`,

	"register": `<div class="screen register">
	<h2>New Registration</h2>
	<input type="text" id="name" placeholder="Full Name">
	<input type="tel" id="phone" placeholder="Phone Number">
	<select id="bloodGroup">
		<option value="" disabled selected>Select Blood Group</option>
		{{- range bloodGroups }}
		<option value="{{ . }}">{{ . }}</option>
		{{- end }}
	</select>
	<button data-action="submit-register">Create Account</button>
	<p>Already have an account? <a href="#" data-action="goto-login">Login</a></p>
</div>`,

	"role-selection": `<div class="screen role-selection">
	<h2>Choose your Role</h2>
	<div class="card" data-action="select-role" data-role="donor">
		<h3>Blood Donor</h3>
		<p>I want to donate blood and save lives.</p>
	</div>
	<div class="card" data-action="select-role" data-role="seeker">
		<h3>Blood Seeker</h3>
		<p>I am looking for blood for an emergency.</p>
	</div>
</div>`,

	"home": `<div class="screen home">
	<div class="header">
		<span class="badge">{{ with .User }}{{ or .BloodGroup "O+" }}{{ end }}</span>
		<p>Hello, <strong>{{ with .User }}{{ .Name }}{{ end }}</strong></p>
	</div>
	<div id="map"></div>
	<button class="fab" data-action="raise-request">SOS</button>
</div>`,

	"requests": `<div class="screen requests">
	<h2>Active Requests</h2>
	{{- if .Requests }}
	<div id="request-list">
		{{- range .Requests }}
		<div class="card request" data-request-id="{{ .ID }}">
			<span class="tag">URGENT</span>
			<h3>{{ .BloodGroup }} Blood Needed</h3>
			<p>{{ .Hospital }}</p>
			<p>Requested by <strong>{{ .SeekerName }}</strong></p>
			<span class="units">{{ .Units }} Units</span>
			<button data-action="accept-request" data-request-id="{{ .ID }}">Donate</button>
		</div>
		{{- end }}
	</div>
	{{- else }}
	<div class="empty">
		<p>No active emergency requests nearby.</p>
		<p>You are all caught up!</p>
	</div>
	{{- end }}
</div>`,

	"profile": `<div class="screen profile">
	{{- with .User }}
	<h2>{{ .Name }}</h2>
	<p class="role">{{ .Role }}</p>
	<div class="card">
		<p>Blood Group: <strong>{{ or .BloodGroup "N/A" }}</strong></p>
		<p>Phone: <strong>{{ .Phone }}</strong></p>
	</div>
	{{- end }}
	<button data-action="logout">Logout</button>
</div>`,
}

// New parses every fragment template.
func New() (*Renderer, error) {
	root := template.New("views").Funcs(template.FuncMap{
		"bloodGroups": func() []models.BloodGroup { return models.BloodGroups },
	})

	for name, fragment := range fragments {
		if _, err := root.New(name).Parse(fragment); err != nil {
			return nil, fmt.Errorf("error parsing the %q view template: %w", name, err)
		}
	}

	return &Renderer{templates: root}, nil
}

// Render produces the fragment for the given view name.
func (r *Renderer) Render(view string, data Data) (string, error) {
	tmpl := r.templates.Lookup(view)
	if tmpl == nil {
		return "", fmt.Errorf("unknown view: %q", view)
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("error rendering the %q view: %w", view, err)
	}

	return builder.String(), nil
}

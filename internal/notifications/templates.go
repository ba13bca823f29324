package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/selvamresidency/hotel-backend/pkg/enums"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// Rendered is a fully expanded email ready for the sender.
type Rendered struct {
	Subject   string
	PlainText string
	HTML      string
}

type templateSet struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// Renderer expands template kinds into email bodies. Missing fields render
// as empty strings.
type Renderer struct {
	hotelName string
	sets      map[enums.TemplateKind]templateSet
}

type templateSource struct {
	subject string
	text    string
	html    string
}

const stayDetailsText = `Room: {{.room_category}}
Check-in: {{.check_in}}
Check-out: {{.check_out}}
Nights: {{.number_of_nights}}
Price per night: Rs. {{.price_per_night}}
Total: Rs. {{.total_price}}`

const stayDetailsHTML = `<table>
<tr><td>Room</td><td>{{.room_category}}</td></tr>
<tr><td>Check-in</td><td>{{.check_in}}</td></tr>
<tr><td>Check-out</td><td>{{.check_out}}</td></tr>
<tr><td>Nights</td><td>{{.number_of_nights}}</td></tr>
<tr><td>Price per night</td><td>Rs. {{.price_per_night}}</td></tr>
<tr><td>Total</td><td>Rs. {{.total_price}}</td></tr>
</table>`

var sources = map[enums.TemplateKind]templateSource{
	enums.TemplateKindApproval: {
		subject: `Booking confirmed - {{.hotel_name}}`,
		text: `Dear {{.from_name}},

Your booking at {{.hotel_name}} has been {{.booking_status}}.

` + stayDetailsText + `

We look forward to welcoming you.
{{.hotel_name}}`,
		html: `<p>Dear {{.from_name}},</p>
<p>Your booking at {{.hotel_name}} has been <strong>{{.booking_status}}</strong>.</p>
` + stayDetailsHTML + `
<p>We look forward to welcoming you.<br>{{.hotel_name}}</p>`,
	},
	enums.TemplateKindRejection: {
		subject: `Update on your booking request - {{.hotel_name}}`,
		text: `Dear {{.from_name}},

We are sorry, your booking request for {{.room_category}} from {{.check_in}} to {{.check_out}} has been {{.booking_status}}.
Reason: {{.rejection_reason}}

{{.hotel_name}}`,
		html: `<p>Dear {{.from_name}},</p>
<p>We are sorry, your booking request for {{.room_category}} from {{.check_in}} to {{.check_out}} has been <strong>{{.booking_status}}</strong>.</p>
<p>Reason: {{.rejection_reason}}</p>
<p>{{.hotel_name}}</p>`,
	},
	enums.TemplateKindNewBooking: {
		subject: `New booking: {{.room_category}} - {{.from_name}}`,
		text: `New booking details:
Name: {{.from_name}}
Email: {{.email}}
Phone: {{.phone}}
Address: {{.address}}
` + stayDetailsText + `
Special requests: {{.special_requests}}`,
		html: `<p>New booking details:</p>
<table>
<tr><td>Name</td><td>{{.from_name}}</td></tr>
<tr><td>Email</td><td>{{.email}}</td></tr>
<tr><td>Phone</td><td>{{.phone}}</td></tr>
<tr><td>Address</td><td>{{.address}}</td></tr>
</table>
` + stayDetailsHTML + `
<p>Special requests: {{.special_requests}}</p>`,
	},
	enums.TemplateKindBookingReceived: {
		subject: `Booking request received - {{.room_category}}`,
		text: `Dear {{.from_name}},

Thank you for booking {{.room_category}} at {{.hotel_name}}. Your request is awaiting confirmation.

` + stayDetailsText + `

Regards,
{{.hotel_name}}`,
		html: `<p>Dear {{.from_name}},</p>
<p>Thank you for booking {{.room_category}} at {{.hotel_name}}. Your request is awaiting confirmation.</p>
` + stayDetailsHTML + `
<p>Regards,<br>{{.hotel_name}}</p>`,
	},
	enums.TemplateKindPendingReminder: {
		subject: `{{.pending_count}} booking request(s) awaiting review`,
		text: `{{.pending_count}} booking request(s) at {{.hotel_name}} have been pending since {{.oldest_created_at}} or earlier.
Booking ids: {{.booking_ids}}`,
		html: `<p>{{.pending_count}} booking request(s) at {{.hotel_name}} have been pending since {{.oldest_created_at}} or earlier.</p>
<p>Booking ids: {{.booking_ids}}</p>`,
	},
}

func NewRenderer(hotelName string) (*Renderer, error) {
	r := &Renderer{hotelName: strings.TrimSpace(hotelName), sets: make(map[enums.TemplateKind]templateSet, len(sources))}
	for kind, src := range sources {
		name := string(kind)
		subject, err := texttemplate.New(name + ".subject").Option("missingkey=zero").Parse(src.subject)
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		text, err := texttemplate.New(name + ".text").Option("missingkey=zero").Parse(src.text)
		if err != nil {
			return nil, fmt.Errorf("parse %s text: %w", name, err)
		}
		html, err := htmltemplate.New(name + ".html").Option("missingkey=zero").Parse(src.html)
		if err != nil {
			return nil, fmt.Errorf("parse %s html: %w", name, err)
		}
		r.sets[kind] = templateSet{subject: subject, text: text, html: html}
	}
	return r, nil
}

func (r *Renderer) Render(kind enums.TemplateKind, fields map[string]string) (Rendered, error) {
	set, ok := r.sets[kind]
	if !ok {
		return Rendered{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification template").
			WithDetails(map[string]any{"kind": string(kind)})
	}

	data := make(map[string]string, len(fields)+1)
	data["hotel_name"] = r.hotelName
	for k, v := range fields {
		data[k] = v
	}

	var subject, text, html bytes.Buffer
	if err := set.subject.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := set.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := set.html.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	return Rendered{
		Subject:   strings.TrimSpace(subject.String()),
		PlainText: text.String(),
		HTML:      html.String(),
	}, nil
}

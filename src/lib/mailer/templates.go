package mailer

import "html/template"

const layout = `
{{define "header"}}<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;padding:20px">
<p>Hi {{.Name}},</p>{{end}}
{{define "details"}}<table style="width:100%;border-collapse:collapse">
<tr><td><strong>Booking ID</strong></td><td>{{.BookingID}}</td></tr>
<tr><td><strong>Item</strong></td><td>{{.ItemTitle}}</td></tr>
{{if .Location}}<tr><td><strong>Location</strong></td><td>{{.Location}}</td></tr>{{end}}
<tr><td><strong>Date</strong></td><td>{{.Date}}{{if .Time}} {{.Time}}{{end}}</td></tr>
<tr><td><strong>Participants</strong></td><td>{{.Participants}}</td></tr>
<tr><td><strong>Total</strong></td><td>{{.Total}}</td></tr>
</table>{{end}}
{{define "footer"}}<p><a href="{{.BookingURL}}">View your booking</a></p>
<p>Thanks for booking with My Guide.</p></div>{{end}}

{{define "confirmation"}}{{template "header" .}}
<h2>Your booking is confirmed</h2>
{{template "details" .}}
{{template "footer" .}}{{end}}

{{define "cancellation"}}{{template "header" .}}
<h2>Your booking has been cancelled</h2>
{{template "details" .}}
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
{{template "footer" .}}{{end}}

{{define "payment_confirmation"}}{{template "header" .}}
<h2>We received your payment</h2>
{{template "details" .}}
{{if .PaymentID}}<p><strong>Payment reference:</strong> {{.PaymentID}}</p>{{end}}
{{template "footer" .}}{{end}}

{{define "reminder"}}{{template "header" .}}
<h2>Your booking is tomorrow</h2>
{{template "details" .}}
<p>Please arrive 15 minutes early.</p>
{{template "footer" .}}{{end}}
`

var templates = template.Must(template.New("notifications").Parse(layout))

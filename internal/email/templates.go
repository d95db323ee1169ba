package email

import (
	"fmt"
	"html"
)

// TicketCreated renders the new-ticket notice for staff.
func TicketCreated(number, title, companyName, priority string) (subject, plain, htmlBody string) {
	subject = fmt.Sprintf("[%s] New ticket: %s", number, title)
	plain = fmt.Sprintf("A new ticket was opened for %s.\n\nNumber: %s\nTitle: %s\nPriority: %s\n",
		companyName, number, title, priority)
	htmlBody = fmt.Sprintf(`<html><body>
<h2>New ticket %s</h2>
<p><strong>%s</strong></p>
<p>Company: %s<br>Priority: %s</p>
</body></html>`, html.EscapeString(number), html.EscapeString(title), html.EscapeString(companyName), html.EscapeString(priority))
	return subject, plain, htmlBody
}

// StatusChanged renders the status-change notice.
func StatusChanged(number, title, oldStatus, newStatus string) (subject, plain, htmlBody string) {
	subject = fmt.Sprintf("[%s] Status changed to %s", number, newStatus)
	plain = fmt.Sprintf("Ticket %s (%s) moved from %s to %s.\n", number, title, oldStatus, newStatus)
	htmlBody = fmt.Sprintf(`<html><body>
<h2>Ticket %s</h2>
<p>%s</p>
<p>Status: %s &rarr; <strong>%s</strong></p>
</body></html>`, html.EscapeString(number), html.EscapeString(title), html.EscapeString(oldStatus), html.EscapeString(newStatus))
	return subject, plain, htmlBody
}

// CommentAdded renders the new-comment notice.
func CommentAdded(number, title, author, body string, internal bool) (subject, plain, htmlBody string) {
	label := "New comment"
	if internal {
		label = "New internal note"
	}
	subject = fmt.Sprintf("[%s] %s", number, label)
	plain = fmt.Sprintf("%s on ticket %s (%s) by %s:\n\n%s\n", label, number, title, author, body)
	htmlBody = fmt.Sprintf(`<html><body>
<h2>%s on %s</h2>
<p>%s</p>
<p><em>%s</em></p>
<blockquote>%s</blockquote>
</body></html>`, label, html.EscapeString(number), html.EscapeString(title), html.EscapeString(author), html.EscapeString(body))
	return subject, plain, htmlBody
}

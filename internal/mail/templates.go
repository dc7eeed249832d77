package mail

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentDetails feeds AppointmentConfirmation.
type AppointmentDetails struct {
	RecipientName string
	PatientName   string
	Title         string
	DoctorName    string
	Location      string
	ScheduledAt   time.Time
	Duration      time.Duration
}

// AppointmentConfirmation renders the mail sent after an appointment is
// scheduled.
func AppointmentConfirmation(projectName, to string, d AppointmentDetails) Message {
	var b strings.Builder
	greeting := d.RecipientName
	if greeting == "" {
		greeting = "there"
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", greeting)
	fmt.Fprintf(&b, "An appointment has been scheduled for %s.\n\n", d.PatientName)
	fmt.Fprintf(&b, "  What:  %s\n", d.Title)
	fmt.Fprintf(&b, "  When:  %s (%d minutes)\n", d.ScheduledAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST"), int(d.Duration.Minutes()))
	if d.DoctorName != "" {
		fmt.Fprintf(&b, "  With:  %s\n", d.DoctorName)
	}
	if d.Location != "" {
		fmt.Fprintf(&b, "  Where: %s\n", d.Location)
	}
	fmt.Fprintf(&b, "\n%s\n", projectName)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] Appointment scheduled: %s", projectName, d.Title),
		Body:    b.String(),
	}
}

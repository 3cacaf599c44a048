package notifier

import (
	"fmt"

	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// message is the rendered text for one notification kind.
type message struct {
	Subject string
	Body    string
	// SMS-worthy kinds also go out through the SNS channel when configured.
	HighPriority bool
}

func render(n *models.Notification) message {
	title, _ := n.Payload["title"].(string)
	switch n.Kind {
	case models.KindAOPublished:
		return message{
			Subject: "Your mission offer is live",
			Body:    fmt.Sprintf("Your offer %q has been published and is now open to applications.", title),
		}
	case models.KindAORejected:
		reason, _ := n.Payload["reason"].(string)
		return message{
			Subject: "Your mission offer needs changes",
			Body:    fmt.Sprintf("Your offer %q was not approved: %s. You can edit and resubmit it.", title, reason),
		}
	case models.KindCandidatureValidated:
		return message{
			Subject: "New validated application",
			Body:    "An application on your offer passed review and is ready for your decision.",
		}
	case models.KindCandidatureRejected:
		reason, _ := n.Payload["reason"].(string)
		return message{
			Subject: "Update on your application",
			Body:    fmt.Sprintf("Your application was declined: %s.", reason),
		}
	case models.KindInterviewRequested:
		return message{
			Subject:      "Interview requested",
			Body:         "A company wants to interview you. Open your dashboard to pick a slot.",
			HighPriority: true,
		}
	case models.KindInterviewConfirmed:
		return message{
			Subject:      "Interview confirmed",
			Body:         "The candidate confirmed one of your proposed slots.",
			HighPriority: true,
		}
	case models.KindCandidatureHired:
		return message{
			Subject:      "Congratulations, you are hired",
			Body:         "The company selected your application. They will contact you shortly.",
			HighPriority: true,
		}
	default:
		return message{
			Subject: "Account update",
			Body:    "Something changed on your dashboard.",
		}
	}
}

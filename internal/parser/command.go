package parser

import (
	"regexp"
	"strings"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

var (
	jobIDPattern = regexp.MustCompile(`(?i)job\s*([a-f0-9-]+)`)
	otpPattern   = regexp.MustCompile(`(?i)\botp\s*[:#]?\s*(\d{4,8})\b`)
)

// RiderCommand is a parsed rider instruction.
type RiderCommand struct {
	Kind  domain.CommandKind
	JobID string // id or id prefix, lowercased; empty when none was given
	Proof domain.DeliveryProof
}

// NeedsJobID reports whether the command acts on a specific job.
func (c RiderCommand) NeedsJobID() bool {
	switch c.Kind {
	case domain.CommandAccept, domain.CommandPickedUp, domain.CommandDelivered:
		return true
	}
	return false
}

// ParseRiderCommand classifies a rider message. Keywords are checked in a
// fixed order: listing, accept, pickup, delivered, status.
func ParseRiderCommand(text string, imageRefs []string) RiderCommand {
	cmd := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(cmd, "jobs") || strings.Contains(cmd, "available"):
		return RiderCommand{Kind: domain.CommandListJobs}
	case strings.Contains(cmd, "accept"):
		return RiderCommand{Kind: domain.CommandAccept, JobID: ExtractJobID(text)}
	case strings.Contains(cmd, "picked") || strings.Contains(cmd, "pickup"):
		return RiderCommand{Kind: domain.CommandPickedUp, JobID: ExtractJobID(text)}
	case strings.Contains(cmd, "delivered"):
		proof := domain.DeliveryProof{OTP: extractOTP(text)}
		if len(imageRefs) > 0 {
			proof.Photo = imageRefs[0]
		}
		return RiderCommand{Kind: domain.CommandDelivered, JobID: ExtractJobID(text), Proof: proof}
	case strings.Contains(cmd, "status"):
		return RiderCommand{Kind: domain.CommandStatus}
	}
	return RiderCommand{Kind: domain.CommandUnrecognized}
}

// ExtractJobID returns the id following the word "job", or "" if none.
func ExtractJobID(text string) string {
	m := jobIDPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.Trim(m[1], "-"))
}

func extractOTP(text string) string {
	m := otpPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

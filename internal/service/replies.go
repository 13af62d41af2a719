package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/parser"
)

const (
	notSpecified = "Not specified"

	sellerNotRegisteredReply = "❌ You need to register as a seller first. Visit our website to create an account."
	riderNotRegisteredReply  = "❌ You need to register as a rider first. Visit our website to create an account."
	uploadFailedReply        = "❌ Failed to process your product. Please try again."

	noJobsReply       = "📦 No jobs available right now. Check back later!"
	noActiveJobsReply = "📊 No active jobs. Reply 'jobs' to see available deliveries."
	jobTakenReply     = "❌ Job not available or already taken."

	acceptUsageReply   = "❌ Please specify job ID: 'accept job123'"
	pickupUsageReply   = "❌ Please specify job ID: 'picked up job123'"
	deliverUsageReply  = "❌ Please specify job ID: 'delivered job123'"
	jobNotFoundReply   = "❌ Job not found. Reply 'status' to see your active jobs."
	riderInactiveReply = "❌ Your rider account is not active. Please contact support."

	riderHelpReply = `🚴 *Rider Commands:*

📦 *jobs* - View available deliveries
📊 *status* - Check your active jobs
✅ *accept job[ID]* - Accept a delivery
📦 *picked up job[ID]* - Mark as picked up
🎯 *delivered job[ID]* - Mark as delivered

Example: accept job12345678`

	welcomeReply = `👋 Welcome to Makola Online!

🛍️ *For Sellers:* Send product photos with details to list items
🚴 *For Riders:* Reply 'jobs' to see available deliveries
📱 Visit our website to create an account

How can I help you today?`
)

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNotSpecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}

func productReceivedReply(p parser.ProductFields) string {
	price := notSpecified
	if p.Price != 0 {
		price = "GHS " + formatAmount(p.Price)
	}
	return fmt.Sprintf(`✅ Product received!
📝 Title: %s
💰 Price: %s
📋 Description: %s

Your product will be reviewed and published shortly. You can manage it from your seller dashboard.`,
		orNotSpecified(p.Title), price, orNotSpecified(p.Description))
}

func availableJobsReply(jobs []domain.DeliveryJob) string {
	var b strings.Builder
	b.WriteString("📦 *Available Jobs:*\n\n")
	for i, job := range jobs {
		fmt.Fprintf(&b, "%d. 🆔 Job: %s\n", i+1, job.ShortID())
		fmt.Fprintf(&b, "📍 Pickup: %s\n", job.PickupLocation)
		fmt.Fprintf(&b, "🎯 Dropoff: %s\n", job.DropoffLocation)
		fmt.Fprintf(&b, "💰 Fee: GHS %s\n", formatAmount(job.QuotedFee))
		fmt.Fprintf(&b, "⏰ %s\n\n", job.CreatedAt.Format("02 Jan 2006 15:04"))
	}
	b.WriteString("To accept a job, reply: *accept job[ID]*\nExample: accept job12345678")
	return b.String()
}

func jobAcceptedReply(job *domain.DeliveryJob) string {
	short := job.ShortID()
	return fmt.Sprintf(`✅ Job accepted! 🎉

📦 Job: %s
📍 Pickup: %s
🎯 Dropoff: %s
💰 Fee: GHS %s

Next steps:
1. Contact seller for pickup details
2. Reply 'picked up job%s' when collected
3. Reply 'delivered job%s' when delivered`,
		short, job.PickupLocation, job.DropoffLocation, formatAmount(job.QuotedFee), short, short)
}

func activeJobsReply(jobs []domain.DeliveryJob) string {
	var b strings.Builder
	b.WriteString("📊 *Your Active Jobs:*\n\n")
	for _, job := range jobs {
		fmt.Fprintf(&b, "🆔 Job: %s\n", job.ShortID())
		fmt.Fprintf(&b, "📍 %s → %s\n", job.PickupLocation, job.DropoffLocation)
		fmt.Fprintf(&b, "💰 GHS %s\n", formatAmount(job.QuotedFee))
		fmt.Fprintf(&b, "📋 Status: %s\n\n", strings.ToUpper(string(job.Status)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func jobPickedUpReply(job *domain.DeliveryJob) string {
	short := job.ShortID()
	return fmt.Sprintf(`📦 Job %s picked up!

🎯 Deliver to: %s

When delivered, reply 'delivered job%s otp <code>' or send a photo with the caption 'delivered job%s'.`,
		short, job.DropoffLocation, short, short)
}

func jobDeliveredReply(job *domain.DeliveryJob) string {
	return fmt.Sprintf(`🎯 Job %s delivered! Thank you.

💰 Your fee of GHS %s will be paid once the delivery is confirmed.`,
		job.ShortID(), formatAmount(job.QuotedFee))
}

func proofRequiredReply(ref string) string {
	return fmt.Sprintf("📸 Proof of delivery required. Send a photo with the caption 'delivered job%s' or reply 'delivered job%s otp <code>'.", ref, ref)
}

func ambiguousJobReply(ref string) string {
	return fmt.Sprintf("❌ More than one job starts with '%s'. Please send more of the job ID.", ref)
}

func transitionDeniedReply(ref, action string, err error) string {
	return fmt.Sprintf("❌ Cannot mark job %s as %s: %s", ref, action, denialReason(err))
}

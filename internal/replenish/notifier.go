package replenish

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EmailEnqueuer queues an outbound email for asynchronous delivery.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to []string, subject, body string) error
}

// MailNotifier turns proposals into buyer alert emails.
type MailNotifier struct {
	enqueue    EmailEnqueuer
	recipients []string
	printer    *message.Printer
}

// NewMailNotifier builds a notifier for the configured recipient list.
func NewMailNotifier(enqueue EmailEnqueuer, recipients []string) *MailNotifier {
	return &MailNotifier{
		enqueue:    enqueue,
		recipients: recipients,
		printer:    message.NewPrinter(language.English),
	}
}

// ProposalCreated queues the alert. With no recipients configured it is a
// no-op so single-operator setups do not accumulate failed statuses.
func (n *MailNotifier) ProposalCreated(ctx context.Context, p Proposal, d Decision) error {
	if len(n.recipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Replenishment proposal for %s", p.SKU)
	body := n.printer.Sprintf(
		"A %s proposal was created for %s.\n\nOrder quantity: %.0f units\nReorder point: %.0f\nEffective stock: %.0f\nLane: %s (%d day lead time)\nSupplier: %s\nProposal ID: %s\n",
		string(p.Source), p.SKU, p.Quantity, d.ReorderPoint, d.EffectiveStock,
		string(d.Mode), d.LeadTimeDays, p.SupplierID, p.ID.String())
	return n.enqueue.EnqueueEmail(ctx, n.recipients, subject, body)
}

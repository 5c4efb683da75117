package notify

import (
	"context"
	"fmt"
	"log/slog"

	"arq/internal/leads/models"
)

// ResourceResolver maps a download slug to its file URL so confirmations
// can carry the link.
type ResourceResolver interface {
	ResolveDownload(ctx context.Context, slug string) (string, error)
}

// Config addresses the outbound mail.
type Config struct {
	From     string
	NotifyTo string
	SiteName string
}

// Notifier renders lead emails and hands them to a Sender.
type Notifier struct {
	cfg       Config
	sender    Sender
	templates *Templates
	resources ResourceResolver
	logger    *slog.Logger
}

type Option func(*Notifier)

func WithResources(r ResourceResolver) Option {
	return func(n *Notifier) { n.resources = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func New(cfg Config, sender Sender, opts ...Option) (*Notifier, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Arq"
	}
	n := &Notifier{
		cfg:       cfg,
		sender:    sender,
		templates: templates,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NotifyTeam alerts the team inbox about a new lead. Without a team
// address it does nothing.
func (n *Notifier) NotifyTeam(ctx context.Context, lead *models.Lead) error {
	if n.cfg.NotifyTo == "" {
		return nil
	}
	data := n.view(lead)
	html, text, err := n.templates.Render("team", data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("[%s] %s from %s", n.cfg.SiteName, data.KindLabel, displayName(lead))
	if lead.Analysis != nil {
		subject = fmt.Sprintf("%s (%s)", subject, lead.Analysis.Priority)
	}
	return n.sender.Send(ctx, &Message{
		From:     n.cfg.From,
		To:       []string{n.cfg.NotifyTo},
		ReplyTo:  lead.Email,
		Subject:  subject,
		HTML:     html,
		Text:     text,
		Template: "team",
	})
}

// Confirm acknowledges the submission to the submitter.
func (n *Notifier) Confirm(ctx context.Context, lead *models.Lead) error {
	if lead.Email == "" {
		return nil
	}
	data := n.view(lead)
	if lead.Kind == models.KindDownload && n.resources != nil {
		fileURL, err := n.resources.ResolveDownload(ctx, lead.Resource)
		if err != nil {
			return fmt.Errorf("resolve download link: %w", err)
		}
		data.FileURL = fileURL
	}
	html, text, err := n.templates.Render("confirm", data)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, &Message{
		From:     n.cfg.From,
		To:       []string{lead.Email},
		Subject:  confirmSubject(lead.Kind, n.cfg.SiteName),
		HTML:     html,
		Text:     text,
		Template: "confirm",
	})
}

func (n *Notifier) view(lead *models.Lead) view {
	return view{Lead: lead, KindLabel: kindLabel(lead.Kind), SiteName: n.cfg.SiteName}
}

func confirmSubject(kind models.Kind, site string) string {
	switch kind {
	case models.KindNewsletter:
		return "Welcome to the " + site + " newsletter"
	case models.KindDownload:
		return "Your " + site + " download"
	default:
		return "Thanks for contacting " + site
	}
}

func displayName(lead *models.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.Email
}

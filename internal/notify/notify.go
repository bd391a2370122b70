package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/workflow"
)

// New builds the notifier selected by notify.sink. A "none" sink returns a
// nil notifier, which disables notifications.
func New(cfg config.NotifyConfig, logger zerolog.Logger) (workflow.Notifier, error) {
	switch strings.ToLower(cfg.Sink) {
	case "", "none":
		return nil, nil
	case "webhook":
		return NewWebhookNotifier(cfg, logger), nil
	case "kafka":
		return NewKafkaNotifier(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown notify sink %q", cfg.Sink)
	}
}

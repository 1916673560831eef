package usenet

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"nzbcheck/config"
	"nzbcheck/models"
)

// Checker fans article existence checks out over a bounded number of NNTP
// connections. Each article gets its own short-lived connection; the only
// shared state is the read-only settings snapshot.
type Checker struct {
	cfg config.Settings
	log *slog.Logger

	// OnOutcome, when set, is called once per outcome in completion order.
	// It runs on the aggregator goroutine, so it never races with itself.
	OnOutcome func(models.Outcome)
}

func NewChecker(cfg config.Settings, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{cfg: cfg, log: logger}
}

// Check verifies every message ID against the server and returns the folded
// summary. IDs are expected to be unique already; each one yields exactly one
// outcome. Cancelling the context stops launching new sessions — in-flight
// ones run to their own deadlines and are still counted — and the partial
// summary is returned together with the context error.
func (c *Checker) Check(ctx context.Context, ids []string) (*models.Summary, error) {
	log := c.log.With("run_id", uuid.NewString())
	log.Debug("check started",
		"server", c.cfg.Addr(),
		"articles", len(ids),
		"connections", c.cfg.Connections,
	)

	outcomes := make(chan models.Outcome)
	summary := &models.Summary{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for out := range outcomes {
			summary.Total++
			switch out.Status {
			case models.StatusFound:
				summary.Found++
			case models.StatusMissing:
				summary.Missing++
				summary.MissingIDs = append(summary.MissingIDs, out.MessageID)
			default:
				summary.Errors++
				log.Debug("article check inconclusive", "message_id", out.MessageID, "error", out.Err)
			}
			if c.OnOutcome != nil {
				c.OnOutcome(out)
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(c.cfg.Connections)
dispatch:
	for _, id := range ids {
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}
		p.Go(func() {
			outcomes <- c.checkArticle(ctx, id)
		})
	}
	p.Wait()
	close(outcomes)
	<-done

	if err := ctx.Err(); err != nil {
		log.Debug("check cancelled", "completed", summary.Total)
		return summary, err
	}

	log.Debug("check finished",
		"total", summary.Total,
		"found", summary.Found,
		"missing", summary.Missing,
		"errors", summary.Errors,
	)
	return summary, nil
}

// checkArticle runs one connect/auth/stat/quit cycle. Every failure collapses
// into StatusError; the cause travels on the outcome for logging only.
func (c *Checker) checkArticle(ctx context.Context, messageID string) models.Outcome {
	sess, err := dialSession(ctx, c.cfg)
	if err != nil {
		return models.Outcome{MessageID: messageID, Status: models.StatusError, Err: err}
	}
	defer sess.close()

	if err := sess.handshake(); err != nil {
		return models.Outcome{MessageID: messageID, Status: models.StatusError, Err: err}
	}

	found, err := sess.stat(messageID)
	if err != nil {
		return models.Outcome{MessageID: messageID, Status: models.StatusError, Err: err}
	}
	if found {
		return models.Outcome{MessageID: messageID, Status: models.StatusFound}
	}
	return models.Outcome{MessageID: messageID, Status: models.StatusMissing}
}

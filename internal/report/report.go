package report

import (
	"github.com/srimandarbha/conntracker/internal/logging"
	"github.com/srimandarbha/conntracker/internal/snapshot"
)

var log = logging.L("report")

// Reporter delivers one cycle's snapshot to a sink. Delivery is best
// effort: a failed cycle is not retried, the next cycle's fresh snapshot
// is the recovery mechanism.
type Reporter interface {
	Report(snap snapshot.Snapshot) error
	Close() error
}

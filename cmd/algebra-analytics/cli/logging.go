package cli

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.ApplicationLogger("algebra-analytics", "github.com/streamingfast/algebra-analytics/cmd/algebra-analytics/cli",
		logging.WithSwitcherServerAutoStart(),
	)
}

package subscription

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("subscription", "github.com/streamingfast/algebra-analytics/subscription")
}

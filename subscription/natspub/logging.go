package natspub

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("natspub", "github.com/streamingfast/algebra-analytics/subscription/natspub")
}

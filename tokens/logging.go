package tokens

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("tokens", "github.com/streamingfast/algebra-analytics/tokens")
}

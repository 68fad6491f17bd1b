package codec

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("codec", "github.com/streamingfast/algebra-analytics/codec")
}

package tokens

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Chain asks each fetcher in turn; the first one resolving decimals wins.
type Chain []Fetcher

func (c Chain) Fetch(ctx context.Context, address string, blockNum uint64) (*Info, error) {
	var errs []error
	for _, fetcher := range c {
		info, err := fetcher.Fetch(ctx, address, blockNum)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrDecimalsUnavailable) {
			return nil, err
		}
		errs = append(errs, err)
	}

	zlog.Debug("token unresolved by every fetcher", zap.String("address", address), zap.Uint64("block_num", blockNum), zap.Int("fetchers", len(c)))
	if len(errs) == 0 {
		return nil, fmt.Errorf("no fetcher for %s: %w", address, ErrDecimalsUnavailable)
	}
	return nil, errors.Join(errs...)
}

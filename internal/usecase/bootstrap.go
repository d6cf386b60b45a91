package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/logger"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// 起動時に1回だけ済ませたい処理（マイグレーション・初期管理者など）
type BootstrapStep struct {
	Name string
	Run  func(ctx context.Context) error
}

// Bootstrapは失敗したステップを後から再試行する。
// ステップは登録順に実行し、失敗したらそこで止める（次回はそのステップから）。
// 再試行の間隔はbackoffに従う。
type Bootstrap struct {
	mu      sync.Mutex
	pending []BootstrapStep
	nextTry time.Time
	done    atomic.Bool
	policy  backoff.BackOff
	now     func() time.Time
	log     *logger.Logger
}

// DI
func NewBootstrap(now func() time.Time, policy backoff.BackOff, log *logger.Logger, steps ...BootstrapStep) *Bootstrap {
	policy.Reset()
	b := &Bootstrap{
		pending: append([]BootstrapStep(nil), steps...),
		policy:  policy,
		now:     now,
		log:     log,
	}
	b.done.Store(len(steps) == 0)
	return b
}

// Ensureは残りのステップを実行し、全て済んでいればtrueを返す。
// 次の試行時刻より前・他で実行中の時は何もしない。
func (b *Bootstrap) Ensure(ctx context.Context) bool {
	if b.done.Load() {
		return true
	}
	if !b.mu.TryLock() {
		return false
	}
	defer b.mu.Unlock()

	now := b.now()
	if now.Before(b.nextTry) {
		return false
	}

	for len(b.pending) > 0 {
		step := b.pending[0]
		if err := step.Run(ctx); err != nil {
			wait := b.policy.NextBackOff()
			if wait < 0 {
				wait = 0
			}
			b.nextTry = now.Add(wait)
			b.log.Warn("bootstrap step failed, will retry",
				zap.String("step", step.Name),
				zap.Duration("retry_after", wait),
				zap.Error(err),
			)
			return false
		}
		b.log.Info("bootstrap step done", zap.String("step", step.Name))
		b.pending = b.pending[1:]
		b.policy.Reset()
	}

	b.done.Store(true)
	return true
}

// 未完了のステップ名
func (b *Bootstrap) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.pending))
	for _, s := range b.pending {
		names = append(names, s.Name)
	}
	return names
}

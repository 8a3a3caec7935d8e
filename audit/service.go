package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/neonmaze/cache"
	"github.com/kasuganosora/neonmaze/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	batchSize     = 100
	flushInterval = 2 * time.Second
	// recentRounds is how many round summaries stay in the cache list.
	recentRounds = 50
)

// AuditEntry holds one player action to be logged.
type AuditEntry struct {
	TraceID    string
	PlayerID   string
	PlayerName string
	RoomID     string
	Action     string
	Request    interface{}
	Error      string
	DurationMs int
}

// Service persists audit entries and round results asynchronously in
// batches. Finished rounds are also pushed to the recent-rounds list, added
// to the leaderboard and published on the rounds channel.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	pubsub cache.PubSub
	logs   chan *model.AuditLog
	rounds chan *model.RoundResult
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
// c and ps may be nil, in which case rounds are only stored.
func New(db *gorm.DB, c cache.Cache, ps cache.PubSub, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		cache:  c,
		pubsub: ps,
		logs:   make(chan *model.AuditLog, 1024),
		rounds: make(chan *model.RoundResult, 256),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry AuditEntry) {
	var req datatypes.JSON
	if entry.Request != nil {
		req, _ = json.Marshal(entry.Request)
	}
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		PlayerID:   entry.PlayerID,
		PlayerName: entry.PlayerName,
		RoomID:     entry.RoomID,
		Action:     entry.Action,
		Request:    req,
		Error:      entry.Error,
		DurationMs: entry.DurationMs,
	}
	select {
	case svc.logs <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Record enqueues a finished round. It never blocks the caller's tick loop.
func (svc *Service) Record(result model.RoundResult) {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	select {
	case svc.rounds <- &result:
	default:
		svc.logger.Warn("round channel full, dropping result",
			zap.String("mode", result.Mode),
			zap.String("room_id", result.RoomID))
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	svc.once.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.logs:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case r := <-svc.rounds:
			svc.storeRound(r)
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.logs:
					batch = append(batch, entry)
				case r := <-svc.rounds:
					svc.storeRound(r)
				default:
					flush()
					return
				}
			}
		}
	}
}

// storeRound writes a round row, then fans the summary out to the cache.
// Cache failures are logged and never undo the DB write.
func (svc *Service) storeRound(r *model.RoundResult) {
	if err := svc.db.Create(r).Error; err != nil {
		svc.logger.Error("round write failed", zap.Error(err),
			zap.String("room_id", r.RoomID))
		return
	}
	if svc.cache == nil && svc.pubsub == nil {
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		svc.logger.Error("round marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if svc.cache != nil {
		if err := svc.cache.LPush(ctx, cache.KeyRecentRounds, string(payload)); err != nil {
			svc.logger.Warn("recent rounds push failed", zap.Error(err))
		} else if err := svc.cache.LTrim(ctx, cache.KeyRecentRounds, 0, recentRounds-1); err != nil {
			svc.logger.Warn("recent rounds trim failed", zap.Error(err))
		}
		for _, id := range survivors(r) {
			if _, err := svc.cache.ZIncrBy(ctx, cache.KeyLeaderboard, 1, id); err != nil {
				svc.logger.Warn("leaderboard update failed", zap.Error(err))
				break
			}
		}
	}
	if svc.pubsub != nil {
		if err := svc.pubsub.Publish(ctx, cache.ChannelRounds, string(payload)); err != nil {
			svc.logger.Warn("round publish failed", zap.Error(err))
		}
	}
}

func survivors(r *model.RoundResult) []string {
	if len(r.Detail) == 0 {
		return nil
	}
	var d model.RoundDetail
	if err := json.Unmarshal(r.Detail, &d); err != nil {
		return nil
	}
	return d.Survivors
}

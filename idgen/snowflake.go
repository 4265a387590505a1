package idgen

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/idbuilder/clog"
	"github.com/ceyewan/idbuilder/xerrors"
)

// waitInterval 序列号耗尽后轮询时钟的间隔
const waitInterval = 50 * time.Microsecond

// Parts Decompose 的结果
type Parts struct {
	ID              int64     `json:"id"`
	TimestampOffset int64     `json:"timestamp_offset"`
	WorkerID        int64     `json:"worker_id"`
	Sequence        int64     `json:"sequence"`
	Time            time.Time `json:"time"`
}

// state 发号状态，lastTimestamp 与 sequence 作为一个整体读写
type state struct {
	lastTimestamp int64
	sequence      int64
}

// Snowflake 雪花算法生成器
//
// 所有方法并发安全。同一实例发出的 ID 在所有 goroutine 间严格递增。
type Snowflake struct {
	layout *Layout
	opts   *options
	logger clog.Logger
	m      *snowflakeMetrics

	mu    sync.Mutex
	state state
}

// NewSnowflake 基于已校验的 Layout 创建生成器
//
// 使用示例:
//
//	layout, _ := idgen.NewLayout(epoch, 7, 10, 12)
//	sf, _ := idgen.NewSnowflake(layout,
//	    idgen.WithLogger(logger),
//	    idgen.WithExhaustionPolicy(idgen.PolicyFail),
//	    idgen.WithMaxWait(2*time.Millisecond),
//	)
func NewSnowflake(layout *Layout, opts ...Option) (*Snowflake, error) {
	if layout == nil {
		return nil, xerrors.WithCode(ErrInvalidInput, "layout_nil")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	m, err := newSnowflakeMetrics(o.meter, layout.WorkerID)
	if err != nil {
		return nil, err
	}

	// 拷贝一份，调用方后续修改原 Layout 不影响生成器
	l := *layout
	sf := &Snowflake{
		layout: &l,
		opts:   o,
		logger: o.logger,
		m:      m,
		state:  state{lastTimestamp: -1},
	}

	sf.logger.Info("snowflake generator created",
		clog.Int64("worker_id", l.WorkerID),
		clog.Int64("epoch_millis", l.EpochMillis),
		clog.Int("worker_id_bits", int(l.WorkerIDBits)),
		clog.Int("sequence_bits", int(l.SequenceBits)),
		clog.String("exhaustion_policy", o.policy.String()),
	)

	return sf, nil
}

// NextID 生成一个 ID
//
// 当前时间早于上次发号时间时返回 ErrClockMovedBackwards，状态保持不变，
// 是否等待重试由调用方决定。
func (s *Snowflake) NextID() (int64, error) {
	s.mu.Lock()
	st := s.state
	id, waited, err := s.next(&st)
	if err == nil {
		s.state = st
	}
	s.mu.Unlock()

	if err != nil {
		s.record(0, waited, err)
		return 0, err
	}
	s.record(1, waited, nil)
	return id, nil
}

// NextIDs 生成 n 个 ID，n <= 0 时返回空切片
//
// 整个批次在同一临界区内完成，批次内 ID 连续且不与其他调用交错。
// 任意一个 ID 生成失败时整批失败，不返回任何 ID，状态保持不变。
func (s *Snowflake) NextIDs(n int) ([]int64, error) {
	if n <= 0 {
		return []int64{}, nil
	}

	ids := make([]int64, 0, n)
	var (
		waited time.Duration
		err    error
	)

	s.mu.Lock()
	st := s.state
	for len(ids) < n {
		var (
			id int64
			w  time.Duration
		)
		id, w, err = s.next(&st)
		waited += w
		if err != nil {
			break
		}
		ids = append(ids, id)
	}
	if err == nil {
		s.state = st
	}
	s.mu.Unlock()

	if err != nil {
		s.record(0, waited, err)
		s.logger.Debug("batch generation aborted",
			clog.Int("requested", n),
			clog.Int("produced", len(ids)),
			clog.Error(err),
		)
		return nil, err
	}
	s.record(n, waited, nil)
	return ids, nil
}

// Decompose 拆解 ID，不修改状态，不会失败
func (s *Snowflake) Decompose(id int64) Parts {
	return s.layout.Parts(id)
}

// Layout 返回生成器使用的位布局，调用方不应修改
func (s *Snowflake) Layout() *Layout {
	return s.layout
}

// Handle 返回指向该生成器的共享句柄
func (s *Snowflake) Handle() Handle {
	return Handle{s: s}
}

// next 在临界区内基于 st 生成一个 ID，仅修改 st
func (s *Snowflake) next(st *state) (int64, time.Duration, error) {
	now, err := s.offset(st.lastTimestamp)
	if err != nil {
		return 0, 0, err
	}

	var waited time.Duration
	if now == st.lastTimestamp {
		if st.sequence < s.layout.MaxSequence() {
			st.sequence++
			return s.layout.Compose(now, s.layout.WorkerID, st.sequence), 0, nil
		}

		s.m.exhausted.Inc(context.Background(), s.m.labels...)
		start := time.Now()
		now, err = s.waitNextMillis(st.lastTimestamp)
		waited = time.Since(start)
		if err != nil {
			return 0, waited, err
		}
	}

	st.lastTimestamp = now
	st.sequence = 0
	return s.layout.Compose(now, s.layout.WorkerID, 0), waited, nil
}

// offset 读取时钟并换算为相对纪元的偏移
//
// 已发过号时，早于 last 的时间一律视为时钟回拨，即使同时早于纪元。
// last 为 -1 表示尚未发号，此时只做范围检查。
func (s *Snowflake) offset(last int64) (int64, error) {
	now := s.opts.clock.NowMillis() - s.layout.EpochMillis
	if last >= 0 && now < last {
		return 0, s.backwards(last, now)
	}
	if now < 0 || now > s.layout.MaxTimestampOffset() {
		return 0, xerrors.WithCode(
			xerrors.Wrapf(ErrTimestampOverflow, "offset %d not in [0, %d]", now, s.layout.MaxTimestampOffset()),
			"timestamp_overflow",
		)
	}
	return now, nil
}

// waitNextMillis 等待时钟越过 last
func (s *Snowflake) waitNextMillis(last int64) (int64, error) {
	start := time.Now()
	for {
		now, err := s.offset(last)
		if err != nil {
			return 0, err
		}
		if now > last {
			return now, nil
		}
		if s.opts.policy == PolicyFail && time.Since(start) >= s.opts.maxWait {
			return 0, xerrors.WithCode(
				xerrors.Wrapf(ErrSequenceExhausted, "offset %d, waited %v", last, time.Since(start)),
				"sequence_exhausted",
			)
		}
		time.Sleep(waitInterval)
	}
}

func (s *Snowflake) backwards(last, now int64) error {
	drift := time.Duration(last-now) * time.Millisecond
	s.logger.Warn("clock moved backwards",
		clog.Duration("drift", drift),
		clog.Int64("last_timestamp", last),
		clog.Int64("now", now),
	)
	return xerrors.WithCode(
		xerrors.Wrapf(ErrClockMovedBackwards, "drift %v", drift),
		"clock_moved_backwards",
	)
}

// record 在锁外上报指标，序列号耗尽次数在临界区内记录
func (s *Snowflake) record(generated int, waited time.Duration, err error) {
	ctx := context.Background()
	if generated > 0 {
		s.m.generated.Add(ctx, float64(generated), s.m.labels...)
	}
	if waited > 0 {
		s.m.wait.Record(ctx, waited.Seconds(), s.m.labels...)
	}
	if err != nil && xerrors.Is(err, ErrClockMovedBackwards) {
		s.m.backwards.Inc(ctx, s.m.labels...)
	}
}

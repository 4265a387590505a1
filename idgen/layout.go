package idgen

import (
	"time"

	"github.com/ceyewan/idbuilder/xerrors"
)

const (
	// MaxSequenceBits 序列号最大位宽，序列号计数器为 32 位无符号数
	MaxSequenceBits = 31

	// MinTimestampBits 时间戳至少保留的位宽
	MinTimestampBits = 1

	// DefaultWorkerIDBits 默认 WorkerID 位宽
	DefaultWorkerIDBits = 10

	// DefaultSequenceBits 默认序列号位宽
	DefaultSequenceBits = 12

	// DefaultEpochMillis 默认纪元 2024-01-01T00:00:00Z
	DefaultEpochMillis int64 = 1704067200000

	usableBits = 63
)

// Layout 描述一个 Snowflake ID 空间：纪元、位宽分配以及本节点的 WorkerID。
//
// Layout 经 Validate（或 NewLayout）校验后即视为不可变，可被任意多个
// goroutine 无锁读取。
type Layout struct {
	// EpochMillis 纪元（Unix 毫秒），ID 中的时间戳为相对该值的偏移
	EpochMillis int64 `mapstructure:"epoch_millis" yaml:"epoch_millis" json:"epoch_millis"`

	// WorkerIDBits WorkerID 位宽，允许为 0
	WorkerIDBits uint8 `mapstructure:"worker_id_bits" yaml:"worker_id_bits" json:"worker_id_bits"`

	// SequenceBits 序列号位宽，允许为 0，最大 31
	SequenceBits uint8 `mapstructure:"sequence_bits" yaml:"sequence_bits" json:"sequence_bits"`

	// WorkerID 本节点 ID，范围 [0, 2^WorkerIDBits)
	WorkerID int64 `mapstructure:"worker_id" yaml:"worker_id" json:"worker_id"`
}

// NewLayout 创建并校验 Layout
func NewLayout(epochMillis int64, workerID int64, workerBits, sequenceBits uint8) (*Layout, error) {
	l := &Layout{
		EpochMillis:  epochMillis,
		WorkerIDBits: workerBits,
		SequenceBits: sequenceBits,
		WorkerID:     workerID,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate 校验位宽与 WorkerID
func (l *Layout) Validate() error {
	if l.EpochMillis < 0 {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidBitLayout, "epoch %d is negative", l.EpochMillis), "epoch_negative")
	}
	if l.SequenceBits > MaxSequenceBits {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrInvalidBitLayout, "sequence bits %d exceed %d", l.SequenceBits, MaxSequenceBits),
			"sequence_bits_too_large",
		)
	}
	if int(l.WorkerIDBits)+int(l.SequenceBits) > usableBits-MinTimestampBits {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrInvalidBitLayout, "worker bits %d + sequence bits %d leave no timestamp bits",
				l.WorkerIDBits, l.SequenceBits),
			"bit_layout_overflow",
		)
	}
	if l.WorkerID < 0 || l.WorkerID > l.MaxWorkerID() {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrInvalidWorkerID, "worker id %d not in [0, %d]", l.WorkerID, l.MaxWorkerID()),
			"worker_id_out_of_range",
		)
	}
	return nil
}

// TimestampBits 时间戳位宽 = 63 - WorkerIDBits - SequenceBits
func (l *Layout) TimestampBits() uint8 {
	return usableBits - l.WorkerIDBits - l.SequenceBits
}

// MaxWorkerID WorkerID 可取的最大值
func (l *Layout) MaxWorkerID() int64 {
	return mask(l.WorkerIDBits)
}

// MaxSequence 每毫秒序列号可取的最大值
func (l *Layout) MaxSequence() int64 {
	return mask(l.SequenceBits)
}

// MaxTimestampOffset 时间戳偏移可取的最大值
func (l *Layout) MaxTimestampOffset() int64 {
	return mask(l.TimestampBits())
}

// Compose 按位布局组合 ID，调用方保证各字段在位宽范围内
func (l *Layout) Compose(offset, workerID, sequence int64) int64 {
	return offset<<(l.WorkerIDBits+l.SequenceBits) |
		workerID<<l.SequenceBits |
		sequence
}

// Decompose 按位布局拆解 ID，任意 64 位输入都可拆解
func (l *Layout) Decompose(id int64) (offset, workerID, sequence int64) {
	sequence = id & l.MaxSequence()
	workerID = (id >> l.SequenceBits) & l.MaxWorkerID()
	offset = int64(uint64(id)>>(l.WorkerIDBits+l.SequenceBits)) & l.MaxTimestampOffset()
	return offset, workerID, sequence
}

// Parts 拆解 ID 并附带绝对时间
func (l *Layout) Parts(id int64) Parts {
	offset, worker, seq := l.Decompose(id)
	return Parts{
		ID:              id,
		TimestampOffset: offset,
		WorkerID:        worker,
		Sequence:        seq,
		Time:            l.Time(offset),
	}
}

// Time 将时间戳偏移还原为绝对时间
func (l *Layout) Time(offset int64) time.Time {
	return time.UnixMilli(l.EpochMillis + offset)
}

func mask(bits uint8) int64 {
	return int64(uint64(1)<<bits - 1)
}

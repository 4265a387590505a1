package idgen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idbuilder/xerrors"
)

func TestNewLayout(t *testing.T) {
	tests := []struct {
		name       string
		epoch      int64
		workerID   int64
		workerBits uint8
		seqBits    uint8
		wantErr    error
		wantCode   string
	}{
		{name: "classic 41/10/12", epoch: DefaultEpochMillis, workerID: 7, workerBits: 10, seqBits: 12},
		{name: "zero widths", epoch: 0, workerID: 0, workerBits: 0, seqBits: 0},
		{name: "max worker id", workerID: 1023, workerBits: 10, seqBits: 12},
		{name: "max sequence bits", workerBits: 0, seqBits: MaxSequenceBits},
		{name: "one timestamp bit left", workerBits: 31, seqBits: 31},
		{
			name: "no timestamp bits", workerBits: 32, seqBits: 31,
			wantErr: ErrInvalidBitLayout, wantCode: "bit_layout_overflow",
		},
		{
			name: "sequence bits too large", seqBits: 32,
			wantErr: ErrInvalidBitLayout, wantCode: "sequence_bits_too_large",
		},
		{
			name: "width sum overflows uint8", workerBits: 200, seqBits: 10,
			wantErr: ErrInvalidBitLayout, wantCode: "bit_layout_overflow",
		},
		{
			name: "negative epoch", epoch: -1, workerBits: 10, seqBits: 12,
			wantErr: ErrInvalidBitLayout, wantCode: "epoch_negative",
		},
		{
			name: "worker id equals 2^bits", workerID: 1024, workerBits: 10, seqBits: 12,
			wantErr: ErrInvalidWorkerID, wantCode: "worker_id_out_of_range",
		},
		{
			name: "negative worker id", workerID: -1, workerBits: 10, seqBits: 12,
			wantErr: ErrInvalidWorkerID, wantCode: "worker_id_out_of_range",
		},
		{
			name: "worker id with zero worker bits", workerID: 1, workerBits: 0, seqBits: 12,
			wantErr: ErrInvalidWorkerID, wantCode: "worker_id_out_of_range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := NewLayout(tt.epoch, tt.workerID, tt.workerBits, tt.seqBits)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantCode, xerrors.GetCode(err))
				assert.Nil(t, layout)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint8(63)-tt.workerBits-tt.seqBits, layout.TimestampBits())
		})
	}
}

func TestLayout_Bounds(t *testing.T) {
	layout, err := NewLayout(0, 7, 10, 12)
	require.NoError(t, err)

	assert.Equal(t, uint8(41), layout.TimestampBits())
	assert.Equal(t, int64(1023), layout.MaxWorkerID())
	assert.Equal(t, int64(4095), layout.MaxSequence())
	assert.Equal(t, int64(1)<<41-1, layout.MaxTimestampOffset())

	full, err := NewLayout(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), full.MaxWorkerID())
	assert.Equal(t, int64(0), full.MaxSequence())
	assert.Equal(t, int64(math.MaxInt64), full.MaxTimestampOffset())
}

func TestLayout_RoundTrip(t *testing.T) {
	layouts := []struct{ worker, seq uint8 }{
		{10, 12}, {5, 5}, {0, 22}, {22, 0}, {0, 0}, {31, 31},
	}

	for _, lb := range layouts {
		layout, err := NewLayout(0, 0, lb.worker, lb.seq)
		require.NoError(t, err)

		samples := [][3]int64{
			{0, 0, 0},
			{layout.MaxTimestampOffset(), layout.MaxWorkerID(), layout.MaxSequence()},
			{1000 & layout.MaxTimestampOffset(), 7 & layout.MaxWorkerID(), 3 & layout.MaxSequence()},
			{layout.MaxTimestampOffset() / 2, layout.MaxWorkerID() / 2, layout.MaxSequence() / 2},
		}
		for _, s := range samples {
			id := layout.Compose(s[0], s[1], s[2])
			assert.GreaterOrEqual(t, id, int64(0), "sign bit must stay 0")

			offset, worker, seq := layout.Decompose(id)
			assert.Equal(t, s, [3]int64{offset, worker, seq}, "layout %d/%d", lb.worker, lb.seq)
		}
	}
}

func TestLayout_DecomposeAnyInput(t *testing.T) {
	layout, err := NewLayout(0, 0, 10, 12)
	require.NoError(t, err)

	offset, worker, seq := layout.Decompose(-1)
	assert.Equal(t, layout.MaxTimestampOffset(), offset)
	assert.Equal(t, layout.MaxWorkerID(), worker)
	assert.Equal(t, layout.MaxSequence(), seq)
}

func TestLayout_Time(t *testing.T) {
	layout, err := NewLayout(DefaultEpochMillis, 0, 10, 12)
	require.NoError(t, err)

	got := layout.Time(1500)
	assert.Equal(t, time.UnixMilli(DefaultEpochMillis+1500), got)
	assert.Equal(t, 2024, got.UTC().Year())
}

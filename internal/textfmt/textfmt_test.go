package textfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

func TestStrategies(t *testing.T) {
	sink := serial.NewBasicSink([]byte("> "))

	out, err := Int[int64]{}.Serialize(-42, sink)
	require.NoError(t, err)
	assert.Equal(t, "> INT -42", string(out))

	out, err = IntWithPrefix[uint8]("").Serialize(7, sink)
	require.NoError(t, err)
	assert.Equal(t, "> 7", string(out))

	out, err = Float[float32]{}.Serialize(0.5, sink)
	require.NoError(t, err)
	assert.Equal(t, "> DBL 0.500000", string(out))

	out, err = String{}.Serialize("FOO", sink)
	require.NoError(t, err)
	assert.Equal(t, "> FOO", string(out))

	// 策略不提交位置。
	assert.Equal(t, "> ", string(sink.Output()))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, DefaultIntPrefix, Int[int]{}.Prefix())
	assert.Equal(t, "", IntWithPrefix[int]("").Prefix())
	assert.Equal(t, "FOO ", IntWithPrefix[int]("FOO ").Prefix())
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	assert.Len(t, r.Types(), 13)

	end, err := serial.SerializeInto(r, nil,
		serial.Value[[]byte](int8(1)),
		serial.Value[[]byte](uint64(2)),
		serial.Value[[]byte](float32(3)),
	)
	require.NoError(t, err)
	assert.Equal(t, "INT 1INT 2DBL 3.000000", string(end))

	assert.ErrorIs(t, Register(r), merr.ErrStrategyConflict)
}

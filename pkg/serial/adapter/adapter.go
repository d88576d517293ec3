// Package adapter 提供可组合的通用策略：把字节编解码器、压缩器与长度前缀
// 接入 serial 的策略模型。除 Slice 外，游标均为追加式 []byte，位置即 len。
package adapter

import (
	"encoding/binary"

	"github.com/lk2023060901/danmu-serial/pkg/compressor"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/serializer"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Marshaled 返回一个用 s 编码 T 并追加到游标之后的策略。
func Marshaled[T any](s serializer.Serializer) serial.Strategy[T, []byte] {
	return marshaled[T]{s: s}
}

type marshaled[T any] struct {
	s serializer.Serializer
}

func (m marshaled[T]) Serialize(v T, sink serial.Sink[[]byte]) ([]byte, error) {
	data, err := m.s.Marshal(v)
	if err != nil {
		return nil, merr.WrapErrCodecFailed(m.s.Name(), err)
	}
	return append(sink.Output(), data...), nil
}

// LengthPrefixed 在 inner 的输出前加上 uvarint 长度，便于在流中切分。
func LengthPrefixed[T any](inner serial.Strategy[T, []byte]) serial.Strategy[T, []byte] {
	return serial.StrategyFunc[T, []byte](func(v T, sink serial.Sink[[]byte]) ([]byte, error) {
		body, err := inner.Serialize(v, serial.NewBasicSink[[]byte](nil))
		if err != nil {
			return nil, err
		}
		out := binary.AppendUvarint(sink.Output(), uint64(len(body)))
		return append(out, body...), nil
	})
}

// Compressed 先用 inner 编码，再用 c 压缩后追加到游标之后。
func Compressed[T any](inner serial.Strategy[T, []byte], c compressor.Compressor) serial.Strategy[T, []byte] {
	return serial.StrategyFunc[T, []byte](func(v T, sink serial.Sink[[]byte]) ([]byte, error) {
		body, err := inner.Serialize(v, serial.NewBasicSink[[]byte](nil))
		if err != nil {
			return nil, err
		}
		packet, err := c.Compress(nil, body)
		if err != nil {
			return nil, err
		}
		return append(sink.Output(), packet...), nil
	})
}

// Bounded 限制 inner 写入后的游标长度不超过 limit，超出时返回 ErrShortBuffer。
// 超出部分可能已经写进了底层数组，但由于没有返回游标，不会被提交。
func Bounded[T any](inner serial.Strategy[T, []byte], limit int) serial.Strategy[T, []byte] {
	return serial.StrategyFunc[T, []byte](func(v T, sink serial.Sink[[]byte]) ([]byte, error) {
		out, err := inner.Serialize(v, sink)
		if err != nil {
			return nil, err
		}
		if len(out) > limit {
			return nil, merr.WrapErrShortBuffer(len(out), limit)
		}
		return out, nil
	})
}

// Slice 依次用 elem 序列化切片中的每个元素，等价于把每个元素作为单独的值分发。
// 元素在内部的临时 Sink 上折叠，调用方的 Sink 仍只由分发引擎提交。
func Slice[T, C any](elem serial.Strategy[T, C]) serial.Strategy[[]T, C] {
	return serial.StrategyFunc[[]T, C](func(vs []T, sink serial.Sink[C]) (C, error) {
		scratch := serial.NewBasicSink(sink.Output())
		for _, v := range vs {
			next, err := elem.Serialize(v, scratch)
			if err != nil {
				var zero C
				return zero, err
			}
			scratch.AdvanceTo(next)
		}
		return scratch.Output(), nil
	})
}

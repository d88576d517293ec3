package serializer

import "github.com/vmihailenco/msgpack/v5"

// MsgPackSerializer 使用 MessagePack 编码，体积比 JSON 更小。
type MsgPackSerializer struct{}

var _ Serializer = MsgPackSerializer{}

func (MsgPackSerializer) Name() string { return "msgpack" }

func (MsgPackSerializer) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgPackSerializer) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

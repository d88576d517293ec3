package serializer

import (
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// ProtoSerializer 使用 Protobuf 进行二进制序列化。
//
// 注意：传入/传出的对象必须实现 proto.Message。
type ProtoSerializer struct {
	// Deterministic 为 true 时，map 字段按键排序输出，保证相同消息得到相同字节。
	Deterministic bool
}

// 编译期断言：确保 ProtoSerializer 实现了 Serializer 接口。
var _ Serializer = ProtoSerializer{}

func (ProtoSerializer) Name() string { return "proto" }

func (s ProtoSerializer) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, merr.WrapErrCodecTypeMismatch(s.Name(), "proto.Message", v)
	}
	return proto.MarshalOptions{Deterministic: s.Deterministic}.Marshal(msg)
}

func (s ProtoSerializer) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return merr.WrapErrCodecTypeMismatch(s.Name(), "proto.Message", v)
	}
	return proto.Unmarshal(data, msg)
}

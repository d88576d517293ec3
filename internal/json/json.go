//go:build amd64 || arm64

// Package json 统一项目内的 JSON 编解码入口，amd64/arm64 上使用 bytedance/sonic。
package json

import (
	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Marshal 与 encoding/json.Marshal 行为一致（键有序、转义 HTML）。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal 与 encoding/json.Unmarshal 行为一致。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}

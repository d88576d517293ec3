//go:build !amd64 && !arm64

package json

import (
	jsoniter "github.com/json-iterator/go"
)

// sonic 不支持的平台上退回到 json-iterator 的标准库兼容配置。
var api = jsoniter.ConfigCompatibleWithStandardLibrary

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

func Valid(data []byte) bool {
	return api.Valid(data)
}

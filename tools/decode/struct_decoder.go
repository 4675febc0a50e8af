package decode

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// DecodeMap 事件帧里的 data 是 map[string]any，按 json tag 落到具体 payload 结构上。
// WeaklyTypedInput 兼容客户端把数字发成字符串之类的松散输入。
func DecodeMap[T any](in any) (*T, error) {
	if in == nil {
		return nil, errors.New("nil payload")
	}
	out := new(T)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build decoder")
	}
	if err := dec.Decode(in); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return out, nil
}

package file

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Codec encodes a store document to bytes and back
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Ext is the file extension used for files written with this codec
	Ext() string
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, v)
}

func (jsonCodec) Ext() string { return ".json" }

type yamlCodec struct{}

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

func (yamlCodec) Ext() string { return ".yaml" }

// CodecFor returns the codec registered for the given format name
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", "json":
		return jsonCodec{}, nil
	case "yaml", "yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported store format: %s", format)
	}
}

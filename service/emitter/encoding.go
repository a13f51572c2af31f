package emitter

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/khaledhikmat/exhibit-guide/model"
)

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

func Encode(evt model.ExhibitEvent, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingJSON:
		return json.Marshal(evt)
	case EncodingMsgpack:
		return msgpack.Marshal(evt)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

func Topic(prefix, camera string) string {
	if prefix == "" {
		return fmt.Sprintf("exhibits/%s", camera)
	}
	return fmt.Sprintf("%s/exhibits/%s", prefix, camera)
}

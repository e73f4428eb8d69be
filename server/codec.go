package server

import "encoding/json"

// jsonCodec marshals Connect messages as plain JSON. The service's message
// types are hand-written structs rather than generated protobuf, so the
// default proto codec does not apply.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

/*
Define message structs for communication
- Server -> replay viewers
*/
package message

import (
	"encoding/json"
)

type Type string

const (
	TWrite   Type = "Write"
	TWinsize Type = "Winsize"
	TMarker  Type = "Marker"
	TClose   Type = "Close"
	TError   Type = "Error"
)

type Wrapper struct {
	Type Type
	Data []byte
}

type Winsize struct {
	Rows uint16
	Cols uint16
}

func Unwrap(buff []byte) (Wrapper, error) {
	obj := Wrapper{}
	err := json.Unmarshal(buff, &obj)
	return obj, err
}

func Wrap(msgType Type, msgObject interface{}) (Wrapper, error) {
	data, err := json.Marshal(msgObject)
	if err != nil {
		return Wrapper{}, err
	}
	msg := Wrapper{
		Type: msgType,
		Data: data,
	}
	return msg, nil
}

// ToStruct decodes the payload of a wrapped message into v.
func ToStruct(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

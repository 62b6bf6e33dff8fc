package stream

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"
)

// Params is the opaque creation blob for the streaming verifier: the
// campaign window the streams are clamped to. The registry validates the
// window independently; the copy here lets the verifier advance its clocks
// without reading registry records.
type Params struct {
	Start uint64
	End   uint64
}

// EncodeParams builds the opaque creation blob sponsors pass when binding a
// campaign to the streaming verifier.
func EncodeParams(params *Params) ([]byte, error) {
	return rlp.EncodeToBytes(params)
}

func decodeWindow(raw []byte) (*Params, error) {
	if len(raw) == 0 {
		return nil, errors.New("stream: missing verifier params")
	}
	params := new(Params)
	if err := rlp.DecodeBytes(raw, params); err != nil {
		return nil, err
	}
	return params, nil
}

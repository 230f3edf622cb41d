package api

import (
	"github.com/goccy/go-json"

	"github.com/samcharles93/textfeat/pkg/tensor"
)

type FeatureResponse struct {
	Object    string      `json:"object"`
	Name      string      `json:"name"`
	Encoded   bool        `json:"encoded"`
	Kind      string      `json:"kind,omitempty"`
	VocabSize int         `json:"vocab_size,omitempty"`
	Tensor    tensor.Info `json:"tensor"`
}

type EncodeRequest struct {
	Input InputValue `json:"input"`
}

// Encoding carries IDs when the feature is encoded and Bytes (base64) in raw
// mode. A non-nil IDs selects the encoded form, so an empty encoding still
// reports "ids": [].
type Encoding struct {
	Object string  `json:"object"`
	Index  int     `json:"index"`
	IDs    []int64 `json:"ids,omitempty"`
	Bytes  []byte  `json:"bytes,omitempty"`
}

func (e Encoding) MarshalJSON() ([]byte, error) {
	if e.IDs != nil {
		return json.Marshal(struct {
			Object string  `json:"object"`
			Index  int     `json:"index"`
			IDs    []int64 `json:"ids"`
		}{e.Object, e.Index, e.IDs})
	}
	b := e.Bytes
	if b == nil {
		b = []byte{}
	}
	return json.Marshal(struct {
		Object string `json:"object"`
		Index  int    `json:"index"`
		Bytes  []byte `json:"bytes"`
	}{e.Object, e.Index, b})
}

type EncodeResponse struct {
	ID      string     `json:"id"`
	Object  string     `json:"object"`
	Feature string     `json:"feature"`
	Data    []Encoding `json:"data"`
}

type DecodeRequest struct {
	IDs []int `json:"ids"`
}

type DecodeResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Feature string `json:"feature"`
	Text    string `json:"text"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

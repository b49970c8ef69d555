package format

import (
	"encoding/json"
	"io"
)

type JSONEncoder struct {
	w      io.Writer
	result *Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(r *Result) error {
	e.result = r
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.result, "", "  ")
}

package results

import (
	"bytes"
	"encoding/gob"
)

// Serialize encodes a result for storage using encoding/gob.
func Serialize(r *StepResult) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(r); err != nil {
		resultsLog.Error("Serialize: gob encoding failed", "task", r.TaskID, "error", err)
		return nil, err
	}
	return b.Bytes(), nil
}

// Deserialize transforms bytes produced by Serialize back into a result.
func Deserialize(byt []byte) (*StepResult, error) {
	var r StepResult
	if err := gob.NewDecoder(bytes.NewBuffer(byt)).Decode(&r); err != nil {
		resultsLog.Error("Deserialize: gob decoding failed", "error", err)
		return nil, ErrInvalidValue
	}
	return &r, nil
}

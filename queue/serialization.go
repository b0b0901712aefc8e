package queue

import (
	"bytes"
	"encoding/gob"

	"github.com/merlin-wf/merlin/logger"
)

var queueLog = logger.New("module", "queue")

// Serialize encodes a task for the wire using encoding/gob.
func Serialize(t *Task) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(t); err != nil {
		queueLog.Error("Serialize: gob encoding failed", "task", t.ID, "error", err)
		return nil, err
	}
	return b.Bytes(), nil
}

// Deserialize transforms bytes produced by Serialize back into a task.
func Deserialize(byt []byte) (*Task, error) {
	var t Task
	if err := gob.NewDecoder(bytes.NewBuffer(byt)).Decode(&t); err != nil {
		queueLog.Error("Deserialize: gob decoding failed", "error", err)
		return nil, ErrInvalidValue
	}
	return &t, nil
}

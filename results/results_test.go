package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *StepResult {
	start := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	return &StepResult{
		TaskID:     "abc",
		StudyName:  "demo",
		StepName:   "simulate",
		Worker:     "default_worker-1234",
		ReturnCode: 0,
		Start:      start,
		End:        start.Add(3 * time.Second),
	}
}

func TestSetGetDelete(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()

	_, err := s.Get("abc")
	assert.Equal(t, ErrNotFound, err)

	r := sampleResult()
	assert.NoError(t, s.Set("abc", r))

	got, err := s.Get("abc")
	assert.NoError(t, err)
	assert.Equal(t, r, got)

	assert.NoError(t, s.Delete("abc"))
	assert.Equal(t, ErrNotFound, s.Delete("abc"))
	_, err = s.Get("abc")
	assert.Equal(t, ErrNotFound, err)
}

func TestSetReplaces(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	defer s.Close()

	first := sampleResult()
	assert.NoError(t, s.Set("abc", first))

	second := sampleResult()
	second.ReturnCode = 1
	second.Restarted = true
	assert.NoError(t, s.Set("abc", second))

	got, err := s.Get("abc")
	assert.NoError(t, err)
	assert.Equal(t, 1, got.ReturnCode)
	assert.True(t, got.Restarted)
}

func TestSucceededAndDuration(t *testing.T) {
	r := sampleResult()
	assert.True(t, r.Succeeded())
	assert.Equal(t, 3*time.Second, r.Duration())

	r.ReturnCode = 2
	assert.False(t, r.Succeeded())
}

func TestSerializeRoundTrip(t *testing.T) {
	r := sampleResult()
	payload, err := Serialize(r)
	assert.NoError(t, err)

	decoded, err := Deserialize(payload)
	assert.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := Deserialize([]byte("junk"))
	assert.Equal(t, ErrInvalidValue, err)
}

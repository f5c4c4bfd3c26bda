package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	Code string
	Tags []string
}

func TestStore(t *testing.T) {
	st := NewStore[record](nil)
	assert.True(t, st.Empty())
	assert.Equal(t, []record{}, st.Data())

	st.SetData([]record{{Code: "CS1010"}, {Code: "CS2030"}})
	assert.Equal(t, 2, st.Len())

	st.SetData([]record{{Code: "MA1521"}})
	assert.Equal(t, []record{{Code: "MA1521"}}, st.Data())

	// reading does not expose the backing slice
	data := st.Data()
	data[0].Code = "lol"
	assert.Equal(t, "MA1521", st.Data()[0].Code)

	for i := 0; i < 3; i++ {
		st.Reset()
		assert.True(t, st.Empty())
		assert.Equal(t, []record{}, st.Data())
	}
}

func TestStore_clone(t *testing.T) {
	clone := func(r record) record {
		r.Tags = append([]string(nil), r.Tags...)
		return r
	}
	st := NewStore(clone)

	in := []record{{Code: "CS1010", Tags: []string{"core"}}}
	st.SetData(in)
	in[0].Tags[0] = "changed"
	assert.Equal(t, []string{"core"}, st.Data()[0].Tags)

	data := st.Data()
	data[0].Tags[0] = "changed"
	assert.Equal(t, []string{"core"}, st.Data()[0].Tags)
}

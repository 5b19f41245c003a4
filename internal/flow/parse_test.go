package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	parse := Digits("only digits")

	v, err := parse(Input{Text: " 007 "})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	for _, bad := range []string{"", "12a", "-5", "1.5", "99999999999999999999"} {
		_, err := parse(Input{Text: bad})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, bad)
		assert.Equal(t, "only digits", verr.Message)
	}
}

func TestEmail(t *testing.T) {
	parse := Email("bad")

	v, err := parse(Input{Text: "ism@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ism@example.com", v)

	_, err = parse(Input{Text: "ism@"})
	assert.Error(t, err)
	_, err = parse(Input{Text: ""})
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	parse := URL("bad")

	_, err := parse(Input{Text: "https://t.me/kanal_link"})
	assert.NoError(t, err)

	_, err = parse(Input{Text: "kanal link"})
	assert.Error(t, err)
}

func TestFileAndAny(t *testing.T) {
	v, err := File("send video")(Input{FileID: "vid"})
	require.NoError(t, err)
	assert.Equal(t, "vid", v)

	_, err = File("send video")(Input{Text: "text"})
	assert.Error(t, err)

	in := Input{Text: "hello", ChatID: 5, MessageID: 9}
	v, err = Any()(in)
	require.NoError(t, err)
	assert.Equal(t, in, v)

	data := Data{"msg": v, "code": int64(3)}
	assert.Equal(t, in, data.Input("msg"))
	assert.Equal(t, int64(3), data.Int64("code"))
	assert.Equal(t, "3", data.String("code"))
	assert.Equal(t, "", data.String("missing"))
}

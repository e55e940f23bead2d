package whisper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLangMaxID(t *testing.T) {
	assert.Equal(t, 99, LangMaxID())
	assert.Len(t, Languages(), LangMaxID()+1)
}

func TestLangID(t *testing.T) {
	id, err := LangID("en")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = LangID("yue")
	require.NoError(t, err)
	assert.Equal(t, 99, id)

	id, err = LangID("German")
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	_, err = LangID("non existing language")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLangStr(t *testing.T) {
	code, err := LangStr(0)
	require.NoError(t, err)
	assert.Equal(t, "en", code)

	_, err = LangStr(LangMaxID() + 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = LangStr(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLangStrFull(t *testing.T) {
	name, err := LangStrFull(0)
	require.NoError(t, err)
	assert.Equal(t, "english", name)

	_, err = LangStrFull(LangMaxID() + 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLangTableRoundTrips(t *testing.T) {
	for _, l := range Languages() {
		id, err := LangID(l.Code)
		require.NoError(t, err, l.Code)
		assert.Equal(t, l.ID, id, l.Code)

		code, err := LangStr(l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.Code, code)
	}
}

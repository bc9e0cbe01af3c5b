//go:build !windows

package speech

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupEnginePrefersFirstAvailable(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "espeak" || name == "spd-say" {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	eng, err := lookupEngine("linux", lookPath)
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/espeak", eng.Name())

	ce := eng.(commandEngine)
	require.Equal(t, []string{"-s", "180", "hello"}, ce.args("hello", 180))
}

func TestLookupEngineDarwinUsesSay(t *testing.T) {
	eng, err := lookupEngine("darwin", func(name string) (string, error) { return "/usr/bin/" + name, nil })
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/say", eng.Name())
	require.Equal(t, []string{"-r", "180", "word"}, eng.(commandEngine).args("word", 180))
}

func TestLookupEngineNoneAvailable(t *testing.T) {
	_, err := lookupEngine("linux", func(string) (string, error) { return "", errors.New("missing") })
	require.ErrorIs(t, err, ErrNoEngine)
}

func TestSpdRate(t *testing.T) {
	require.Equal(t, 0, spdRate(180))
	require.Equal(t, 10, spdRate(200))
	require.Equal(t, -100, spdRate(-500))
	require.Equal(t, 100, spdRate(1000))
}

func TestGuardLeadingDash(t *testing.T) {
	require.Equal(t, " -v", guardLeadingDash("-v"))
	require.Equal(t, "plain", guardLeadingDash("plain"))
}

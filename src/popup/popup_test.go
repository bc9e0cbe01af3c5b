package popup

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"

	"offlinemind/src/screen"
)

func TestPlacement(t *testing.T) {
	display := screen.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	tests := []struct {
		name   string
		anchor *screen.Point
		w, h   int
		want   screen.Point
	}{
		{"centered", nil, 450, 200, screen.Point{X: 735, Y: 440}},
		{"near cursor", &screen.Point{X: 500, Y: 300}, 450, 200, screen.Point{X: 490, Y: 290}},
		{"clamped right and bottom", &screen.Point{X: 1900, Y: 1070}, 450, 200, screen.Point{X: 1470, Y: 880}},
		{"clamped left and top", &screen.Point{X: 3, Y: 4}, 450, 200, screen.Point{X: 0, Y: 0}},
		{"wider than display", &screen.Point{X: 100, Y: 100}, 2500, 200, screen.Point{X: 0, Y: 90}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Placement(tt.anchor, tt.w, tt.h, display))
		})
	}
}

func TestPlacementSecondaryDisplay(t *testing.T) {
	display := screen.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024}
	got := Placement(&screen.Point{X: 1925, Y: 500}, 450, 200, display)
	require.Equal(t, screen.Point{X: 1920, Y: 490}, got)

	got = Placement(nil, 450, 200, display)
	require.Equal(t, screen.Point{X: 1920 + 415, Y: 412}, got)
}

func TestLanguageOptions(t *testing.T) {
	require.Equal(t, Languages, languageOptions("French"))
	require.Equal(t, Languages, languageOptions(""))

	opts := languageOptions("Portuguese")
	require.Len(t, opts, len(Languages)+1)
	require.Equal(t, "Portuguese", opts[len(opts)-1])
	require.Len(t, Languages, 7, "shared slice must not grow")
}

func TestShowKeepsSinglePopup(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	p := New(a, time.Hour, nil)
	p.show(View{Text: ThinkingText, Anchor: &screen.Point{X: 10, Y: 10}, Language: "English"})
	first := p.window
	p.show(View{Text: "A definition.", Language: "English"})

	require.NotNil(t, p.window)
	require.NotSame(t, first, p.window)
	require.Len(t, a.Driver().AllWindows(), 1)

	p.closeCurrent()
	require.Nil(t, p.window)
	require.Empty(t, a.Driver().AllWindows())
}

func TestDropdownInitDoesNotRequest(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var changes []string
	p := New(a, time.Hour, func(language string) { changes = append(changes, language) })
	p.show(View{Text: "Eine Definition.", Language: "German"})

	require.Equal(t, "German", p.language.Selected)
	require.Empty(t, changes)

	p.language.SetSelected("Hindi")
	require.Equal(t, []string{"Hindi"}, changes)
}

func TestExpireIgnoresReplacedPopup(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	p := New(a, time.Hour, nil)
	p.show(View{Text: ThinkingText, Language: "English"})
	stale := p.gen
	p.show(View{Text: "Done.", Language: "English"})

	p.expire(stale)
	require.NotNil(t, p.window, "timer of a replaced popup must not close the new one")

	p.expire(p.gen)
	require.Nil(t, p.window)
}

func TestDismissAreaTap(t *testing.T) {
	tapped := 0
	d := newDismissArea(func() { tapped++ })
	test.Tap(d)
	require.Equal(t, 1, tapped)
}

func TestNewDefaultsDismissDelay(t *testing.T) {
	p := New(nil, 0, nil)
	require.Equal(t, DefaultDismissAfter, p.dismissAfter)
}

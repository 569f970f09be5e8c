package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		increments int
		filled     int
		percent    string
	}{
		{0, 0, "0.00%"},
		{1, 3, "25.00%"},
		{2, 5, "50.00%"},
		{4, 10, "100.00%"},
		{9, 10, "100.00%"},
	}

	for _, test := range tests {
		p := New(&bytes.Buffer{}, 10, 4)
		for i := 0; i < test.increments; i++ {
			p.Increment()
		}

		bar := p.Bar("score: 3")
		if filled := strings.Count(bar, "█"); filled != test.filled {
			t.Errorf("%v increments filled: want(%v) have(%v)",
				test.increments, test.filled, filled)
		}
		if !strings.Contains(bar, test.percent) {
			t.Errorf("%v increments: want(%v) have(%v)", test.increments,
				test.percent, bar)
		}
		if !strings.HasSuffix(bar, "score: 3") {
			t.Errorf("status missing: have(%v)", bar)
		}
		if p.Done() != (test.increments >= 4) {
			t.Errorf("%v increments done: want(%v) have(%v)",
				test.increments, test.increments >= 4, p.Done())
		}
	}
}

func TestProgressBarDisplay(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, 4, 2)
	p.Increment()
	p.Display("")

	if !strings.Contains(out.String(), p.Bar("")) {
		t.Errorf("display: want(%q) have(%q)", p.Bar(""), out.String())
	}
}

func TestNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic with no maximum progress")
		}
	}()
	New(&bytes.Buffer{}, 10, 0)
}

package compiler

import (
	"io"
	"strings"
	"testing"
)

func TestDoneReaderSignalsEOF(t *testing.T) {
	d := newDoneReader(strings.NewReader("ab"))

	if _, err := io.ReadAll(d); err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	select {
	case <-d.done:
	default:
		t.Fatal("done channel not closed after EOF")
	}
}

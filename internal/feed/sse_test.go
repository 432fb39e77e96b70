package feed

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestEventReader(t *testing.T) {
	body := strings.Join([]string{
		": keepalive",
		"",
		"data: {\"a\":1}",
		"",
		"event: status",
		"data: ignored",
		"",
		"data:line1\r",
		"data: line2\r",
		"id: 7",
		"\r",
		"data: trailing without blank line",
	}, "\n")

	er := newEventReader(strings.NewReader(body))

	ev, err := er.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(ev.Data) != `{"a":1}` || !ev.isMessage() {
		t.Fatalf("first event = %+v", ev)
	}

	ev, err = er.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != "status" || ev.isMessage() {
		t.Fatalf("second event = %+v, want named non-message event", ev)
	}

	ev, err = er.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(ev.Data) != "line1\nline2" || ev.Type != "" {
		t.Fatalf("third event = %q (%q)", ev.Data, ev.Type)
	}

	if _, err := er.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
}

func TestEventReaderLongLine(t *testing.T) {
	payload := strings.Repeat("A", 512*1024)
	er := newEventReader(strings.NewReader("data: " + payload + "\n\n"))
	ev, err := er.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Data) != len(payload) {
		t.Fatalf("len = %d, want %d", len(ev.Data), len(payload))
	}
}

func TestEventReaderCRLineEndsAndBOM(t *testing.T) {
	body := "\xEF\xBB\xBFdata: first\r\rdata: a\rdata: b\r\n\r\ndata: \xEF\xBB\xBFkept\n\n"
	er := newEventReader(strings.NewReader(body))

	for _, want := range []string{"first", "a\nb", "\xEF\xBB\xBFkept"} {
		ev, err := er.Next()
		if err != nil {
			t.Fatalf("want %q: %v", want, err)
		}
		if string(ev.Data) != want {
			t.Fatalf("data = %q, want %q", ev.Data, want)
		}
	}
	if _, err := er.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
}

func TestEventReaderCRSplitAcrossReads(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("data: one\r"))
		pw.Write([]byte("\n\r"))
		pw.Write([]byte("\ndata: two\n\n"))
		pw.Close()
	}()
	er := newEventReader(pr)
	for _, want := range []string{"one", "two"} {
		ev, err := er.Next()
		if err != nil {
			t.Fatal(err)
		}
		if string(ev.Data) != want {
			t.Fatalf("data = %q, want %q", ev.Data, want)
		}
	}
}

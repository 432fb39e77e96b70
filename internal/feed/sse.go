package feed

import (
	"bufio"
	"bytes"
	"io"
)

// Event is one dispatched text/event-stream message.
type Event struct {
	Type string
	Data []byte
}

// eventReader splits a text/event-stream body into events.
// Lines may end in \n, \r\n or a lone \r; payload lines have no length
// limit. A leading UTF-8 BOM is skipped.
type eventReader struct {
	r       *bufio.Reader
	started bool
	skipLF  bool // last line ended in \r; a following \n belongs to it
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next event that carries data. It returns the read
// error, io.EOF included, once the body ends; a partial trailing event
// is discarded.
func (er *eventReader) Next() (Event, error) {
	var (
		ev      Event
		data    bytes.Buffer
		hasData bool
	)
	for {
		line, err := er.readLine()
		if err != nil {
			return Event{}, err
		}

		if len(line) == 0 {
			if hasData {
				ev.Data = data.Bytes()
				return ev, nil
			}
			ev = Event{}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value := line, []byte(nil)
		if i := bytes.IndexByte(line, ':'); i >= 0 {
			field, value = line[:i], line[i+1:]
			value = bytes.TrimPrefix(value, []byte(" "))
		}

		switch string(field) {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.Write(value)
			hasData = true
		case "event":
			ev.Type = string(value)
		}
		// id and retry only matter for automatic reconnection, which is not done.
	}
}

var utf8BOM = []byte("\xEF\xBB\xBF")

// readLine returns the next line without its terminator. A line cut off
// by the end of the body is dropped and the read error returned.
func (er *eventReader) readLine() ([]byte, error) {
	var line []byte
	for {
		if er.r.Buffered() == 0 {
			if _, err := er.r.Peek(1); err != nil {
				return nil, err
			}
		}
		buf, _ := er.r.Peek(er.r.Buffered())
		if er.skipLF {
			er.skipLF = false
			if buf[0] == '\n' {
				er.r.Discard(1)
				continue
			}
		}
		i := bytes.IndexAny(buf, "\r\n")
		if i < 0 {
			line = append(line, buf...)
			er.r.Discard(len(buf))
			continue
		}
		line = append(line, buf[:i]...)
		er.skipLF = buf[i] == '\r'
		er.r.Discard(i + 1)
		break
	}
	if !er.started {
		er.started = true
		line = bytes.TrimPrefix(line, utf8BOM)
	}
	return line, nil
}

// isMessage reports whether the event would reach an EventSource onmessage handler.
func (ev Event) isMessage() bool {
	return ev.Type == "" || ev.Type == "message"
}
